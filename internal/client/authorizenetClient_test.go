package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"satchmo-store/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAIMResponse(t *testing.T) {
	res, err := ParseAIMResponse("1|1|1|This transaction has been approved.|ABC123|Y|2149186775|42|")
	require.NoError(t, err)
	assert.True(t, res.Approved())
	assert.Equal(t, "1", res.ReasonCode)
	assert.Equal(t, "This transaction has been approved.", res.ReasonText)
	assert.Equal(t, "ABC123", res.AuthCode)
	assert.Equal(t, "2149186775", res.TransactionID)

	res, err = ParseAIMResponse("2|1|2|This transaction has been declined.||P|0|42|")
	require.NoError(t, err)
	assert.False(t, res.Approved())
	assert.Equal(t, AIMDeclined, res.ResponseCode)

	_, err = ParseAIMResponse("3|1")
	assert.Error(t, err)
}

func TestAuthorizenetSubmit(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		_, _ = w.Write([]byte("1|1|1|Approved|AUTH|Y|999|42|\n"))
	}))
	defer srv.Close()

	c := NewAuthorizenetClient(&config.Authorizenet{ConnectionURL: "http://live.invalid", TestURL: srv.URL})
	res, err := c.Submit(context.Background(), false, "login", "key", url.Values{
		"x_type":   {"AUTH_ONLY"},
		"x_amount": {"10.00"},
	})
	require.NoError(t, err)

	assert.Equal(t, "999", res.TransactionID)
	assert.Equal(t, "login", got.Get("x_login"))
	assert.Equal(t, "key", got.Get("x_tran_key"))
	assert.Equal(t, "|", got.Get("x_delim_char"))
	assert.Equal(t, "TRUE", got.Get("x_test_request"))
	assert.Equal(t, "AUTH_ONLY", got.Get("x_type"))
}
