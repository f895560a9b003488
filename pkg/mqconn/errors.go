package mqconn

import appErrors "github.com/oakbridge/mqconnect/pkg/errors"

// Error codes specific to the connection manager, layered on top of the
// shared AppError machinery in pkg/errors.
const (
	CodeConfigLookupFailed = "CONFIG_LOOKUP_FAILED"
	CodeConnectFailed      = "CONNECT_FAILED"
	CodeSubscribeFailed    = "SUBSCRIBE_FAILED"
	CodeUnsubscribeFailed  = "UNSUBSCRIBE_FAILED"
	CodePublishFailed      = "PUBLISH_FAILED"
	CodeDisconnectFailed   = "DISCONNECT_FAILED"
	CodeReconnectFailed    = "RECONNECT_FAILED"
	CodeNoSuchConnection   = "NO_SUCH_CONNECTION"
	CodeUnknownMessenger   = "UNKNOWN_MESSENGER"
	CodeConcurrentConnRace = "CONCURRENT_CONNECT_RACE"
	CodeBadParameters      = "BAD_PARAMETERS"
	CodeEmpty              = "EMPTY"
)

func errConfigLookupFailed(brokerID string, err error) *appErrors.AppError {
	return appErrors.New(CodeConfigLookupFailed, "failed to resolve parameters for broker "+brokerID, err)
}

func errConnectFailed(brokerID string, err error) *appErrors.AppError {
	return appErrors.New(CodeConnectFailed, "failed to connect to broker "+brokerID, err)
}

func errSubscribeFailed(dest string, err error) *appErrors.AppError {
	return appErrors.New(CodeSubscribeFailed, "failed to subscribe to "+dest, err)
}

func errUnsubscribeFailed(dest string, err error) *appErrors.AppError {
	return appErrors.New(CodeUnsubscribeFailed, "failed to unsubscribe from "+dest, err)
}

func errDisconnectFailed(brokerID string, err error) *appErrors.AppError {
	return appErrors.New(CodeDisconnectFailed, "failed to disconnect broker "+brokerID, err)
}

func errNoSuchConnection(brokerID string) *appErrors.AppError {
	return appErrors.New(CodeNoSuchConnection, "no connection for broker "+brokerID, nil)
}

func errUnknownMessenger(id MessengerID) *appErrors.AppError {
	return appErrors.New(CodeUnknownMessenger, "unknown messenger "+string(id), nil)
}

func errConcurrentConnectRace(brokerID string) *appErrors.AppError {
	return appErrors.New(CodeConcurrentConnRace, "concurrent connect race for broker "+brokerID, nil)
}

func errBadParameters(msg string) *appErrors.AppError {
	return appErrors.New(CodeBadParameters, msg, nil)
}

// ErrEmpty is returned by Connector.Get when no message is currently buffered.
// It is not a failure; callers should treat it as "try again later".
var ErrEmpty = appErrors.New(CodeEmpty, "no message available", nil)
