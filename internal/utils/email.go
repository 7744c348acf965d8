package utils

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"gamevault_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

func SendPurchaseEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	if err := msg.From(os.Getenv("SMTP_FROM")); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("recu_achat.pdf", bytes.NewReader(pdfAttachment))
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GeneratePurchaseReceiptHTML génère le HTML du reçu d'achat
func GeneratePurchaseReceiptHTML(purchase models.Purchase, games []models.Game) string {
	itemsHTML := ""
	for _, g := range games {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.2f€</td>
			</tr>`, g.Name, g.Price)
	}

	discountHTML := ""
	if purchase.DiscountCode != "" {
		discountHTML = fmt.Sprintf(`
				<tr>
					<td style="padding: 10px; text-align: right;">Code promo (%s):</td>
					<td style="padding: 10px;">-%.2f€</td>
				</tr>`, purchase.DiscountCode, purchase.TotalAmount-purchase.FinalAmount)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Reçu d'achat</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Merci pour votre achat !</h2>
		<p>Vos jeux sont disponibles dans votre bibliothèque.</p>

		<h3>Détails</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Jeu</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				%s
				<tr>
					<td style="padding: 10px; text-align: right; font-weight: bold;">Total payé:</td>
					<td style="padding: 10px; font-weight: bold;">%.2f€</td>
				</tr>
			</tfoot>
		</table>

		<p style="color: #888; font-size: 12px;">Référence: %s</p>
		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe GameVault</strong>
		</p>
	</div>
</body>
</html>`, itemsHTML, discountHTML, purchase.FinalAmount, purchase.ID.String())
}
