package utils

import (
	"bytes"
	"html/template"
	"time"

	"github.com/pkg/errors"
)

const layoutHTML = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5;">
	<table role="presentation" style="width: 100%; border-collapse: collapse;">
		<tr>
			<td style="padding: 40px 20px;">
				<table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px;">
					<tr>
						<td style="background: #1f7a5a; padding: 36px 30px; text-align: center; border-radius: 12px 12px 0 0;">
							<h1 style="margin: 0; color: #ffffff; font-size: 28px;">{{.Title}}</h1>
						</td>
					</tr>
					<tr>
						<td style="padding: 32px 30px; color: #333333; font-size: 16px; line-height: 1.6;">
							{{template "content" .}}
						</td>
					</tr>
					<tr>
						<td style="padding: 20px 30px; color: #888888; font-size: 12px; text-align: center;">
							Rise Local · Support your neighborhood
						</td>
					</tr>
				</table>
			</td>
		</tr>
	</table>
</body>
</html>`

const welcomeHTML = `{{define "content"}}
<p>Hi {{.Name}},</p>
<p>Thanks for joining <strong>Rise Local</strong>. Local deals from the shops around you are waiting.</p>
<p><a href="{{.FrontendURL}}/deals" style="display: inline-block; padding: 14px 32px; background-color: #1f7a5a; color: #ffffff; text-decoration: none; border-radius: 8px;">Browse deals</a></p>
{{end}}`

const redemptionHTML = `{{define "content"}}
<p>Hi {{.Name}},</p>
<p>You redeemed <strong>{{.DealTitle}}</strong>{{if .VendorName}} at {{.VendorName}}{{end}} on {{.RedeemedAt.Format "Jan 2, 2006 at 3:04 PM MST"}}.</p>
{{if .Code}}<p>Your code: <strong style="font-size: 22px; letter-spacing: 4px;">{{.Code}}</strong></p>{{end}}
<p>Redeemed by mistake? You can undo it from your redemption history for a few minutes.</p>
{{end}}`

const passHTML = `{{define "content"}}
<p>Hi {{.Name}},</p>
<p>Your <strong>Rise Local Pass</strong> is active{{if .Until}} until {{.Until.Format "Jan 2, 2006"}}{{end}}. Pass-only deals are now unlocked.</p>
<p><a href="{{.FrontendURL}}/deals?pass=1" style="display: inline-block; padding: 14px 32px; background-color: #1f7a5a; color: #ffffff; text-decoration: none; border-radius: 8px;">See Pass deals</a></p>
{{end}}`

const orderHTML = `{{define "content"}}
<p>Hi {{.Name}},</p>
<p>Your order <strong>#{{.OrderID}}</strong> is confirmed.</p>
<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
	<thead>
		<tr style="background-color: #f0f0f0;">
			<th style="padding: 8px; text-align: left;">Item</th>
			<th style="padding: 8px; text-align: right;">Qty</th>
			<th style="padding: 8px; text-align: right;">Total</th>
		</tr>
	</thead>
	<tbody>
	{{range .Lines}}
		<tr>
			<td style="padding: 8px;">{{.Name}}</td>
			<td style="padding: 8px; text-align: right;">{{.Quantity}}</td>
			<td style="padding: 8px; text-align: right;">${{.Total}}</td>
		</tr>
	{{end}}
	</tbody>
	<tfoot>
		<tr><td colspan="2" style="padding: 8px; text-align: right;">Tax</td><td style="padding: 8px; text-align: right;">${{.Tax}}</td></tr>
		<tr><td colspan="2" style="padding: 8px; text-align: right; font-weight: bold;">Total</td><td style="padding: 8px; text-align: right; font-weight: bold;">${{.Total}}</td></tr>
	</tfoot>
</table>
{{end}}`

var (
	welcomeTmpl    = template.Must(template.Must(template.New("layout").Parse(layoutHTML)).Parse(welcomeHTML))
	redemptionTmpl = template.Must(template.Must(template.New("layout").Parse(layoutHTML)).Parse(redemptionHTML))
	passTmpl       = template.Must(template.Must(template.New("layout").Parse(layoutHTML)).Parse(passHTML))
	orderTmpl      = template.Must(template.Must(template.New("layout").Parse(layoutHTML)).Parse(orderHTML))
)

type WelcomeEmail struct {
	Title       string
	Name        string
	FrontendURL string
}

type RedemptionEmail struct {
	Title      string
	Name       string
	DealTitle  string
	VendorName string
	Code       string
	RedeemedAt time.Time
}

type PassEmail struct {
	Title       string
	Name        string
	Until       *time.Time
	FrontendURL string
}

type OrderLine struct {
	Name     string
	Quantity int
	Total    string
}

type OrderEmail struct {
	Title   string
	Name    string
	OrderID string
	Lines   []OrderLine
	Tax     string
	Total   string
}

func RenderWelcomeEmail(data WelcomeEmail) (string, error) {
	data.Title = "Welcome to Rise Local"
	return render(welcomeTmpl, data)
}

func RenderRedemptionEmail(data RedemptionEmail) (string, error) {
	data.Title = "Deal redeemed"
	return render(redemptionTmpl, data)
}

func RenderPassEmail(data PassEmail) (string, error) {
	data.Title = "Your Rise Local Pass is active"
	return render(passTmpl, data)
}

func RenderOrderEmail(data OrderEmail) (string, error) {
	data.Title = "Order confirmed"
	return render(orderTmpl, data)
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", errors.Wrap(err, "render e-mail")
	}
	return buf.String(), nil
}
