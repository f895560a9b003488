package mqconn

import (
	"strings"

	appErrors "github.com/oakbridge/mqconnect/pkg/errors"
)

// DestinationKind is the kind segment of an endpoint URI, normalized to
// lower-case for use in destination addresses and pseudo-paths.
type DestinationKind string

const (
	KindQueue DestinationKind = "queue"
	KindTopic DestinationKind = "topic"
)

// Endpoint is a parsed `<brokerId>::<kind>::<name>` URI.
type Endpoint struct {
	BrokerID string
	Kind     DestinationKind
	Name     string
}

// ParseURI parses an endpoint URI of the form `<brokerId>::<Queue|Topic>::<name>`.
// The kind segment is matched case-insensitively and normalized to lower-case.
func ParseURI(uri string) (Endpoint, error) {
	parts := strings.Split(uri, "::")
	if len(parts) != 3 {
		return Endpoint{}, appErrors.InvalidArgument("malformed endpoint uri: "+uri, nil)
	}

	brokerID, kindRaw, name := parts[0], parts[1], parts[2]
	if brokerID == "" || kindRaw == "" || name == "" {
		return Endpoint{}, appErrors.InvalidArgument("malformed endpoint uri: "+uri, nil)
	}

	var kind DestinationKind
	switch strings.ToLower(kindRaw) {
	case string(KindQueue):
		kind = KindQueue
	case string(KindTopic):
		kind = KindTopic
	default:
		return Endpoint{}, appErrors.InvalidArgument("unknown destination kind: "+kindRaw, nil)
	}

	return Endpoint{BrokerID: brokerID, Kind: kind, Name: name}, nil
}

// Address returns the destination address, e.g. "/queue/test1".
func (e Endpoint) Address() string {
	return "/" + string(e.Kind) + "/" + e.Name
}

// DestinationAddress parses uri and returns its destination address.
func DestinationAddress(uri string) (string, error) {
	ep, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	return ep.Address(), nil
}

// MQService parses uri and returns its brokerId.
func MQService(uri string) (string, error) {
	ep, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	return ep.BrokerID, nil
}

// pseudoPath builds the canonical enumeration string for a messenger:
// brokerId/kind/destName/role+N.
func pseudoPath(brokerID string, kind DestinationKind, name string, messengerID MessengerID) string {
	return brokerID + "/" + string(kind) + "/" + name + "/" + string(messengerID)
}
