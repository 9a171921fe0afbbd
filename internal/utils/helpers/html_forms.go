package helpers

import (
	"fmt"
	"html"
)

// BuildPasswordResetHTML renders the reset email. name may be empty.
func BuildPasswordResetHTML(name, link string, ttlMinutes int) string {
	greeting := "Olá!"
	if name != "" {
		greeting = fmt.Sprintf("Olá, %s!", html.EscapeString(name))
	}
	return fmt.Sprintf(`
<html>
  <body style="font-family:Arial,sans-serif;background:#f7f7f7;padding:0;margin:0;">
    <table width="100%%" bgcolor="#f7f7f7" cellpadding="0" cellspacing="0" style="padding:30px 0;">
      <tr>
        <td align="center">
          <table width="560" bgcolor="#fff" cellpadding="24" cellspacing="0" style="border-radius:10px;box-shadow:0 2px 8px #eee;">
            <tr>
              <td>
                <p style="font-size:16px;color:#333;">%s</p>
                <p style="font-size:16px;color:#333;">Use o link abaixo para redefinir sua senha (válido por %d minutos):</p>
                <p>
                  <a href="%s" style="display:inline-block;padding:12px 24px;background:#f7931a;color:#fff;text-decoration:none;border-radius:5px;font-weight:bold;">
                    Redefinir senha
                  </a>
                </p>
                <hr style="border:none;border-top:1px solid #eee;margin:32px 0 12px 0;">
                <p style="font-size:12px;color:#999;margin:0;">Se você não solicitou, ignore este e-mail.</p>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>
`, greeting, ttlMinutes, html.EscapeString(link))
}
