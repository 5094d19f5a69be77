package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/annweb/mailroom"
)

const (
	dateLayout      = "2006-01-02 15:04:05"
	timestampLayout = "20060102_150405"
	notAvailable    = "N/A"
	messagePreview  = 200
)

// Kind names an export and its file name prefix
type Kind string

const (
	ActiveEmails    Kind = "all_active_emails"
	AllSubscribers  Kind = "all_subscribers"
	SelectedEmails  Kind = "selected_emails"
	ContactMessages Kind = "contact_messages"
)

// Filename returns the attachment name of an export generated at t, e.g. all_subscribers_20240501_090000.csv.
func Filename(kind Kind, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", kind, t.Format(timestampLayout), ext)
}

// ActiveCSV writes Email, Date Subscribed, Source Page rows.
func ActiveCSV(w io.Writer, subscribers []mailroom.Subscriber) error {
	rows := make([][]string, 0, len(subscribers))
	for _, s := range subscribers {
		rows = append(rows, []string{s.Email, s.DateSubscribed.Format(dateLayout), orNA(s.SourcePage)})
	}
	return writeCSV(w, []string{"Email", "Date Subscribed", "Source Page"}, rows)
}

// SubscribersCSV writes Email, Date Subscribed, Status, Source Page rows.
func SubscribersCSV(w io.Writer, subscribers []mailroom.Subscriber) error {
	rows := make([][]string, 0, len(subscribers))
	for _, s := range subscribers {
		status := "Inactive"
		if s.Active {
			status = "Active"
		}
		rows = append(rows, []string{s.Email, s.DateSubscribed.Format(dateLayout), status, orNA(s.SourcePage)})
	}
	return writeCSV(w, []string{"Email", "Date Subscribed", "Status", "Source Page"}, rows)
}

// EmailsTXT writes one address per line.
func EmailsTXT(w io.Writer, subscribers []mailroom.Subscriber) error {
	_, err := io.WriteString(w, strings.Join(mailroom.Emails(subscribers), "\n"))
	return errors.Wrap(err, "failed to write emails")
}

// ContactsCSV writes Name, Email, Phone, Message, Read, Date rows. Long messages are cut.
func ContactsCSV(w io.Writer, messages []mailroom.ContactMessage) error {
	rows := make([][]string, 0, len(messages))
	for _, m := range messages {
		read := "No"
		if m.Read {
			read = "Yes"
		}
		rows = append(rows, []string{m.FullName, m.Email, orNA(m.Phone), preview(m.Message), read, m.CreatedAt.Format(dateLayout)})
	}
	return writeCSV(w, []string{"Name", "Email", "Phone", "Message", "Read", "Date"}, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrap(err, "failed to write CSV rows")
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= messagePreview {
		return s
	}
	return string([]rune(s)[:messagePreview]) + "..."
}
