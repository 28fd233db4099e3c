package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"medbridge-booking/config"
	"medbridge-booking/internal/domain/entity"
	domainRepo "medbridge-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

var smtpConnectTimeout = 5 * time.Second

// SMTPNotifier sends booking confirmation emails to patient and doctor over
// SMTP with STARTTLS, attaching an ICS invite.
type SMTPNotifier struct {
	cfg config.SMTPConfig
	log *logrus.Logger
}

func NewSMTPNotifier(cfg config.SMTPConfig, log *logrus.Logger) domainRepo.Notifier {
	return &SMTPNotifier{cfg: cfg, log: log}
}

// SendConfirmation emails both parties. An error is returned when either
// message could not be delivered; the booking itself stands regardless.
func (n *SMTPNotifier) SendConfirmation(ctx context.Context, booking *entity.BookingRecord, doctor *entity.Doctor) error {
	if n.cfg.Host == "" || n.cfg.From == "" {
		return fmt.Errorf("smtp not configured")
	}

	summary := fmt.Sprintf("Consultation: %s - %s", doctor.Name, booking.Patient.Name)
	ics := buildICS(
		summary,
		booking.StartTime, booking.EndTime,
		"Consultation scheduled via Unity Care Clinic.",
		eventLocation(booking, doctor),
		n.cfg.From,
		[]string{booking.Patient.Email, doctor.Email},
		booking.CalendarEventID,
	)

	if err := n.send(ctx, booking.Patient.Email, "Appointment Confirmation - Unity Care Clinic", patientBody(booking, doctor), ics); err != nil {
		return fmt.Errorf("patient email: %w", err)
	}
	if doctor.Email != "" {
		if err := n.send(ctx, doctor.Email, "New Appointment Scheduled - Unity Care Clinic", doctorBody(booking, doctor), ics); err != nil {
			return fmt.Errorf("doctor email: %w", err)
		}
	}
	return nil
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, body, ics string) error {
	cn, err := n.connect(ctx)
	if err != nil {
		return err
	}
	defer cn.Close()

	if err := cn.Mail(n.cfg.From); err != nil {
		return err
	}
	if err := cn.Rcpt(to); err != nil {
		return err
	}
	wr, err := cn.Data()
	if err != nil {
		return err
	}
	defer wr.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return err
	}
	if _, err := textPart.Write([]byte(body)); err != nil {
		return err
	}

	icsPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":        {`text/calendar; method=REQUEST; charset=UTF-8; name="appointment.ics"`},
		"Content-Disposition": {`attachment; filename="appointment.ics"`},
	})
	if err != nil {
		return err
	}
	if _, err := icsPart.Write([]byte(ics)); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	_, err = wr.Write(buf.Bytes())
	return err
}

func (n *SMTPNotifier) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)
	dialer := &net.Dialer{Timeout: smtpConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	cn, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := cn.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
		cn.Close()
		return nil, fmt.Errorf("failed to StartTLS with SMTP server: %w", err)
	}
	if n.cfg.User != "" && n.cfg.Password != "" {
		if err := cn.Auth(smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)); err != nil {
			cn.Close()
			return nil, fmt.Errorf("smtp auth failed: %w", err)
		}
	}
	return cn, nil
}

func patientBody(booking *entity.BookingRecord, doctor *entity.Doctor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", booking.Patient.Name)
	fmt.Fprintf(&b, "Your appointment to consult for %s has been scheduled. Please find the details below:\n\n", valueOr(booking.Condition, "unspecified"))
	fmt.Fprintf(&b, "Doctor: %s\n", doctor.Name)
	fmt.Fprintf(&b, "Specialization: %s\n", valueOr(doctor.Specialization, "General"))
	writeWhenWhereLines(&b, booking, doctor)
	addLink := googleAddToCalendarLink(
		fmt.Sprintf("Consultation: %s - %s", doctor.Name, booking.Patient.Name),
		booking.StartTime, booking.EndTime,
		"Consultation scheduled via Unity Care Clinic.",
		eventLocation(booking, doctor),
	)
	fmt.Fprintf(&b, "\nPlease join 15 minutes early. A calendar invite is attached; kindly add it to your calendar and join on time.\n")
	fmt.Fprintf(&b, "Add to Google Calendar: %s\n\n", addLink)
	b.WriteString("Thank you,\nUnity Care Clinic")
	return b.String()
}

func doctorBody(booking *entity.BookingRecord, doctor *entity.Doctor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", doctor.Name)
	b.WriteString("A new appointment has been booked for a patient consultation. Details are as follows:\n\n")
	fmt.Fprintf(&b, "Patient: %s\n", booking.Patient.Name)
	if booking.Patient.Phone != "" {
		fmt.Fprintf(&b, "Patient phone: %s\n", booking.Patient.Phone)
	}
	if booking.Patient.Age > 0 {
		fmt.Fprintf(&b, "Patient age: %d\n", booking.Patient.Age)
	}
	if booking.Patient.Sex != "" {
		fmt.Fprintf(&b, "Patient sex: %s\n", booking.Patient.Sex)
	}
	fmt.Fprintf(&b, "Condition: %s\n", valueOr(booking.Condition, "Unspecified"))
	writeWhenWhereLines(&b, booking, doctor)
	b.WriteString("\nPlease be available on time. A calendar event is attached; kindly add it to your calendar.\n\n")
	b.WriteString("Thank you,\nUnity Care Clinic")
	return b.String()
}

func writeWhenWhereLines(b *strings.Builder, booking *entity.BookingRecord, doctor *entity.Doctor) {
	loc := booking.StartTime.Location()
	fmt.Fprintf(b, "Date: %s\n", booking.StartTime.Format("Mon, 02 Jan 2006"))
	fmt.Fprintf(b, "Time: %s - %s (%s)\n",
		booking.StartTime.Format("15:04"), booking.EndTime.In(loc).Format("15:04"), loc)
	modeLabel := "In-person"
	if booking.VisitMode == entity.VisitModeOnline {
		modeLabel = "Online"
	}
	fmt.Fprintf(b, "Mode: %s\n", modeLabel)
	fmt.Fprintf(b, "Fee: PKR %d\n", doctor.FeeFor(booking.VisitMode))
	fmt.Fprintf(b, "Clinic: %s\n", valueOr(doctor.Location, "Unity Care Clinic, Karachi"))
}

func eventLocation(booking *entity.BookingRecord, doctor *entity.Doctor) string {
	if booking.VisitMode == entity.VisitModeInPerson {
		return doctor.Location
	}
	return ""
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
