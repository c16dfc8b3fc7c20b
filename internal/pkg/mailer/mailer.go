package mailer

import (
	"fmt"
	"net/smtp"
)

// Mailer define o contrato do colaborador de e-mail.
// Só o fluxo de recuperação de senha depende dele.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer é a implementação concreta da interface Mailer via SMTP puro.
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPMailer cria uma nova instância do Mailer SMTP.
// Esta função é chamada no main.go com os valores do config.
func NewSMTPMailer(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{
		host: host,
		port: port,
		user: user,
		pass: pass,
		from: from,
	}
}

// Send envia um e-mail em texto puro.
// Retorna erro quando o SMTP não está configurado ou quando o envio falha —
// o serviço chamador é responsável pelo rollback do estado parcial.
func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.host == "" || m.port == "" || m.user == "" || m.pass == "" {
		return fmt.Errorf("smtp não configurado")
	}

	addr := m.host + ":" + m.port

	// Monta a mensagem (headers + corpo)
	msg := "From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body + "\r\n"

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
