package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/oakbridge/mqconnect/pkg/errors"
	"github.com/oakbridge/mqconnect/pkg/mqconn"
	"github.com/oakbridge/mqconnect/pkg/mqconn/admin"
)

type nopConnector struct{}

func (nopConnector) SetupConnection(context.Context, mqconn.Parameters) error { return nil }
func (nopConnector) Connect(context.Context) error                            { return nil }
func (nopConnector) Subscribe(context.Context, string, mqconn.MessengerID, mqconn.DeliveryFunc) error {
	return nil
}
func (nopConnector) Unsubscribe(context.Context, string, mqconn.MessengerID) error { return nil }
func (nopConnector) Put(context.Context, string, []byte) error                     { return nil }
func (nopConnector) Get(context.Context) (mqconn.Delivery, error) {
	return mqconn.Delivery{}, mqconn.ErrEmpty
}
func (nopConnector) Disconnect(context.Context) error { return nil }
func (nopConnector) Reconnect(context.Context) error  { return nil }

type staticResolver struct{}

func (staticResolver) Resolve(ctx context.Context, brokerID string) (mqconn.Parameters, error) {
	return mqconn.Parameters{Host: brokerID}, nil
}

func newAdminServer(t *testing.T) (*echo.Echo, *mqconn.ConnectionManager) {
	t.Helper()
	m := mqconn.NewConnectionManager(mqconn.ManagerConfig{}, func(string) mqconn.Connector {
		return nopConnector{}
	})

	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var appErr *appErrors.AppError
		if appErrors.As(err, &appErr) {
			_ = c.JSON(appErrors.HTTPStatus(appErr), appErr)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	admin.New(m).Register(e)
	return e, m
}

func TestListMessengers(t *testing.T) {
	e, m := newAdminServer(t)

	_, err := mqconn.CreateProducer(context.Background(), m, "mardirac3.in2p3.fr::Queue::test1", staticResolver{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messengers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Messengers []string `json:"messengers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"mardirac3.in2p3.fr/queue/test1/producer1"}, body.Messengers)
}

func TestGetConnection(t *testing.T) {
	e, m := newAdminServer(t)

	_, err := mqconn.CreateProducer(context.Background(), m, "mardirac3.in2p3.fr::Queue::test1", staticResolver{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/connections/mardirac3.in2p3.fr", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/connections/unknown.example.org", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShutdownClearsRegistry(t *testing.T) {
	e, m := newAdminServer(t)

	_, err := mqconn.CreateProducer(context.Background(), m, "mardirac3.in2p3.fr::Queue::test1", staticResolver{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shutdown", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Empty(t, m.GetAllMessengers())
	assert.Empty(t, m.ListConnections())
}
