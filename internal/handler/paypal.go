package handler

import (
	"fmt"
	"io"
	"net/http"
	"satchmo-store/internal/service"

	"github.com/labstack/echo/v4"
)

type PaypalHandler struct {
	checkoutService service.CheckoutService
}

func NewPaypalHandler(checkoutService service.CheckoutService) *PaypalHandler {
	return &PaypalHandler{
		checkoutService: checkoutService,
	}
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Payment Received</title>
	<style>
		body {
			font-family: Arial, sans-serif;
			text-align: center;
			margin-top: 80px;
		}
		.countdown {
			font-size: 24px;
			font-weight: bold;
		}
	</style>
</head>
<body>
	<h2>Thank you for your order</h2>
	<p>Order #%d is now %s.</p>
	<p>Redirecting to the store in <span class="countdown" id="countdown">10</span> seconds…</p>

	<script>
		let seconds = 10;
		const el = document.getElementById("countdown");

		const timer = setInterval(function () {
			seconds--;
			el.textContent = seconds;

			if (seconds <= 0) {
				clearInterval(timer);
				window.location.href = "/";
			}
		}, 1000);
	</script>
</body>
</html>
`

// HandleSuccess is the PayPal return URL. PayPal appends the approved order
// id as the token parameter.
func (h *PaypalHandler) HandleSuccess(c echo.Context) error {
	ctx := c.Request().Context()

	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing order token")
	}

	order, err := h.checkoutService.PaypalReturn(ctx, token)
	if err != nil {
		return err
	}

	return c.HTML(http.StatusOK, fmt.Sprintf(successPage, order.ID, order.Status))
}

func (h *PaypalHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.checkoutService.PaypalWebhook(ctx, c.Request().Header, body)
	if err != nil {
		return fmt.Errorf("handle webhook: %w", err)
	}

	return c.NoContent(http.StatusOK)
}
