package mailer

import (
	"fmt"
	"html"

	"github.com/shopspring/decimal"
)

// OrderConfirmationHTML renders the order confirmation body.
func OrderConfirmationHTML(firstName, orderID string, total decimal.Decimal) string {
	return wrap(fmt.Sprintf(
		`<h2>Thanks for your order, %s!</h2>
<p>We received order <strong>%s</strong> for a total of $%s. We'll let you know when it ships.</p>`,
		html.EscapeString(firstName), html.EscapeString(orderID), total.StringFixed(2)))
}

// OrderStatusHTML renders the shipped/delivered updates.
func OrderStatusHTML(firstName, orderID, status string) string {
	return wrap(fmt.Sprintf(
		`<h2>Order update</h2>
<p>Hi %s, your order <strong>%s</strong> is now <strong>%s</strong>.</p>`,
		html.EscapeString(firstName), html.EscapeString(orderID), html.EscapeString(status)))
}

// RefundHTML renders the refund notice.
func RefundHTML(firstName, orderID string, amount decimal.Decimal) string {
	return wrap(fmt.Sprintf(
		`<h2>Refund issued</h2>
<p>Hi %s, we refunded $%s for order <strong>%s</strong>. It may take a few business days to appear on your statement.</p>`,
		html.EscapeString(firstName), amount.StringFixed(2), html.EscapeString(orderID)))
}

// ReturnReceivedHTML renders the return request confirmation.
func ReturnReceivedHTML(firstName, returnID string) string {
	return wrap(fmt.Sprintf(
		`<h2>Return request received</h2>
<p>Hi %s, we received your return request <strong>%s</strong>. Our team will review it shortly.</p>`,
		html.EscapeString(firstName), html.EscapeString(returnID)))
}

func wrap(body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		%s
		<p style="margin-top: 30px; color: #555;">The FashionMart team</p>
	</div>
</body>
</html>`, body)
}
