package mailer

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"pedbook/internal/model"
)

const dateLayout = "02 Jan 2006"

// Enqueuer accepts messages for asynchronous delivery.
type Enqueuer interface {
	Enqueue(msg Message) bool
}

// Notifier turns domain events into queued emails. Users without an email
// address are skipped.
type Notifier struct {
	renderer   *Renderer
	queue      Enqueuer
	baseURL    string
	finePerDay decimal.Decimal
}

// NewNotifier creates a Notifier. baseURL is linked from every email.
func NewNotifier(renderer *Renderer, queue Enqueuer, baseURL string, finePerDay decimal.Decimal) *Notifier {
	return &Notifier{renderer: renderer, queue: queue, baseURL: baseURL, finePerDay: finePerDay}
}

type emailData struct {
	BaseURL     string
	Name        string
	Username    string
	Title       string
	Author      string
	LoanDate    string
	DueDate     string
	ReturnedAt  string
	Overdue     bool
	DaysOverdue int
	Fine        string
	FinePerDay  string
}

// Welcome greets a newly registered user.
func (n *Notifier) Welcome(_ context.Context, user *model.User) {
	n.send(user, TemplateWelcome, emailData{
		BaseURL:  n.baseURL,
		Name:     displayName(user),
		Username: user.Username,
	})
}

// LoanCreated confirms a loan and its due date.
func (n *Notifier) LoanCreated(_ context.Context, loan *model.Loan) {
	n.send(loan.User, TemplateLoanCreated, n.loanData(loan))
}

// LoanReturned sends a return receipt with the fine owed.
func (n *Notifier) LoanReturned(_ context.Context, loan *model.Loan) {
	n.send(loan.User, TemplateLoanReturned, n.loanData(loan))
}

// LoanOverdue reminds the borrower of an overdue loan and reports whether the
// reminder was queued.
func (n *Notifier) LoanOverdue(_ context.Context, loan *model.Loan) bool {
	return n.send(loan.User, TemplateLoanOverdue, n.loanData(loan))
}

func (n *Notifier) loanData(loan *model.Loan) emailData {
	data := emailData{
		BaseURL:     n.baseURL,
		Name:        displayName(loan.User),
		LoanDate:    loan.LoanDate.Format(dateLayout),
		DueDate:     loan.DueDate.Format(dateLayout),
		Overdue:     loan.Overdue,
		DaysOverdue: loan.DaysOverdue,
		Fine:        loan.Fine.StringFixed(2),
		FinePerDay:  n.finePerDay.StringFixed(2),
	}
	if loan.ReturnedAt != nil {
		data.ReturnedAt = loan.ReturnedAt.Format(dateLayout)
	}
	if loan.Book != nil {
		data.Title = loan.Book.Title
		if loan.Book.Author != nil {
			data.Author = loan.Book.Author.Name
		}
	}
	return data
}

// send renders and queues a message, reporting false when the user has no
// address, rendering fails or the queue refused the message.
func (n *Notifier) send(user *model.User, template string, data emailData) bool {
	if user == nil || user.EmailAddress() == "" {
		return false
	}
	subject, body, err := n.renderer.Render(template, data)
	if err != nil {
		log.Printf("render %s email: %v", template, err)
		return false
	}
	return n.queue.Enqueue(Message{To: user.EmailAddress(), Subject: subject, HTML: body})
}

func displayName(user *model.User) string {
	if user == nil {
		return ""
	}
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Username
}
