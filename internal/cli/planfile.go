package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// planFile is the YAML shape accepted by "plan save" and written by
// "plan show --yaml". Items and emails with an id update the stored row;
// entries without one are created.
type planFile struct {
	ID                 int64          `yaml:"id,omitempty"`
	Engagement         string         `yaml:"engagement"`
	Type               string         `yaml:"type"`
	NumInvoices        int            `yaml:"num_invoices,omitempty"`
	PaymentTermDays    int            `yaml:"payment_term_days"`
	FocalPoint         focalPointFile `yaml:"focal_point,omitempty"`
	CustomInstructions string         `yaml:"instructions,omitempty"`
	FirstEmission      string         `yaml:"first_emission,omitempty"`
	Emails             []emailFile    `yaml:"emails,omitempty"`
	Items              []itemFile     `yaml:"items"`
}

type focalPointFile struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

type emailFile struct {
	ID    int64  `yaml:"id,omitempty"`
	Email string `yaml:"email"`
}

type itemFile struct {
	ID           int64  `yaml:"id,omitempty"`
	Amount       string `yaml:"amount"`
	Percentage   string `yaml:"percentage,omitempty"`
	Emission     string `yaml:"emission,omitempty"`
	Due          string `yaml:"due,omitempty"`
	PayerTaxID   string `yaml:"payer_tax_id,omitempty"`
	PONumber     string `yaml:"po,omitempty"`
	FRSNumber    string `yaml:"frs,omitempty"`
	TicketNumber string `yaml:"ticket,omitempty"`
	Description  string `yaml:"description,omitempty"`
	Status       string `yaml:"status,omitempty"` // informational; ignored on save
}

func optionalDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if err := validateOptionalDate(s); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if s == "" {
		return nil, nil
	}
	t, _ := domain.ParseDate(s)
	return &t, nil
}

func optionalDecimal(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a number", field, s)
	}
	return d, nil
}

// readPlanFile decodes a plan, rejecting unknown keys.
func readPlanFile(r io.Reader) (*domain.InvoicePlan, error) {
	var f planFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}

	p := &domain.InvoicePlan{
		ID:                      f.ID,
		EngagementID:            f.Engagement,
		Type:                    domain.PlanType(f.Type),
		NumInvoices:             f.NumInvoices,
		PaymentTermDays:         f.PaymentTermDays,
		CustomerFocalPointName:  f.FocalPoint.Name,
		CustomerFocalPointEmail: f.FocalPoint.Email,
		CustomInstructions:      f.CustomInstructions,
	}
	var err error
	if p.FirstEmissionDate, err = optionalDate("first_emission", f.FirstEmission); err != nil {
		return nil, err
	}
	if p.NumInvoices == 0 {
		p.NumInvoices = len(f.Items)
	}
	for _, e := range f.Emails {
		p.Emails = append(p.Emails, &domain.InvoicePlanEmail{ID: e.ID, Email: e.Email})
	}
	for i, in := range f.Items {
		field := fmt.Sprintf("items[%d]", i)
		it := &domain.InvoiceItem{
			ID:           in.ID,
			PayerTaxID:   in.PayerTaxID,
			PONumber:     in.PONumber,
			FRSNumber:    in.FRSNumber,
			TicketNumber: in.TicketNumber,
			Description:  in.Description,
		}
		if it.Amount, err = optionalDecimal(field+".amount", in.Amount); err != nil {
			return nil, err
		}
		if it.Percentage, err = optionalDecimal(field+".percentage", in.Percentage); err != nil {
			return nil, err
		}
		if it.EmissionDate, err = optionalDate(field+".emission", in.Emission); err != nil {
			return nil, err
		}
		if it.DueDate, err = optionalDate(field+".due", in.Due); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, it)
	}
	return p, nil
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// writePlanFile encodes p so it can be edited and saved back.
func writePlanFile(w io.Writer, p *domain.InvoicePlan) error {
	f := planFile{
		ID:                 p.ID,
		Engagement:         p.EngagementID,
		Type:               string(p.Type),
		NumInvoices:        p.NumInvoices,
		PaymentTermDays:    p.PaymentTermDays,
		FocalPoint:         focalPointFile{Name: p.CustomerFocalPointName, Email: p.CustomerFocalPointEmail},
		CustomInstructions: p.CustomInstructions,
		FirstEmission:      dateString(p.FirstEmissionDate),
	}
	for _, e := range p.Emails {
		f.Emails = append(f.Emails, emailFile{ID: e.ID, Email: e.Email})
	}
	for _, it := range p.Items {
		f.Items = append(f.Items, itemFile{
			ID:           it.ID,
			Amount:       it.Amount.String(),
			Percentage:   it.Percentage.String(),
			Emission:     dateString(it.EmissionDate),
			Due:          dateString(it.DueDate),
			PayerTaxID:   it.PayerTaxID,
			PONumber:     it.PONumber,
			FRSNumber:    it.FRSNumber,
			TicketNumber: it.TicketNumber,
			Description:  it.Description,
			Status:       string(it.Status),
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encoding plan %d: %w", p.ID, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
