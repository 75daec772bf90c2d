package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/invoiceplan/internal/db"
	"github.com/alexanderramin/invoiceplan/internal/domain"
	"github.com/samber/lo"
)

// sqlPlanStore is the row-level access to plans, items and emails over a
// DBTX, so it works both on the pool and inside a transaction.
type sqlPlanStore struct {
	db db.DBTX
}

func newSQLPlanStore(conn db.DBTX, dialect db.Dialect) *sqlPlanStore {
	return &sqlPlanStore{db: db.Rebound(conn, dialect)}
}

// planQuery selects plans. Empty fields do not filter; the item fields
// keep plans having at least one item that matches all of them.
type planQuery struct {
	EngagementIDs []string
	PlanIDs       []int64
	ItemStatus    domain.ItemStatus
	EmissionFrom  string
	EmissionTo    string
}

func (q planQuery) hasItemFilter() bool {
	return q.ItemStatus != "" || q.EmissionFrom != "" || q.EmissionTo != ""
}

const planSelect = `SELECT p.id, p.engagement_id, p.plan_type, p.num_invoices, p.payment_term_days,
		p.focal_point_name, p.focal_point_email, p.custom_instructions, p.first_emission_date,
		p.created_at, p.updated_at, COALESCE(e.name, ''), COALESCE(c.name, '')
	FROM invoice_plans p
	LEFT JOIN engagements e ON e.id = p.engagement_id
	LEFT JOIN customers c ON c.id = e.customer_id`

const itemColumns = `id, plan_id, seq_no, percentage, amount, emission_date, due_date,
		payer_tax_id, po_number, frs_number, ticket_number, description, status,
		ritm_number, coe_responsible, request_date, bz_code, emitted_at,
		canceled_at, cancel_reason, replacement_item_id, created_at, updated_at`

func (s *sqlPlanStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func (s *sqlPlanStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqlPlanStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// loadPlan returns the full plan, or nil when it does not exist.
func (s *sqlPlanStore) loadPlan(ctx context.Context, planID int64) (*domain.InvoicePlan, error) {
	plans, err := s.listPlans(ctx, planQuery{PlanIDs: []int64{planID}})
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return plans[0], nil
}

// listPlans loads matching plans with their items and emails, ordered by id.
func (s *sqlPlanStore) listPlans(ctx context.Context, q planQuery) ([]*domain.InvoicePlan, error) {
	var (
		where []string
		args  []any
	)
	if len(q.EngagementIDs) > 0 {
		where = append(where, "LOWER(p.engagement_id) IN ("+db.Placeholders(len(q.EngagementIDs))+")")
		args = append(args, lo.ToAnySlice(lo.Map(q.EngagementIDs, func(id string, _ int) string { return engagementKey(id) }))...)
	}
	if len(q.PlanIDs) > 0 {
		where = append(where, "p.id IN ("+db.Placeholders(len(q.PlanIDs))+")")
		args = append(args, lo.ToAnySlice(q.PlanIDs)...)
	}
	if q.hasItemFilter() {
		sub := []string{"i.plan_id = p.id"}
		if q.ItemStatus != "" {
			sub = append(sub, "i.status = ?")
			args = append(args, string(q.ItemStatus))
		}
		if q.EmissionFrom != "" {
			sub = append(sub, "i.emission_date >= ?")
			args = append(args, q.EmissionFrom)
		}
		if q.EmissionTo != "" {
			sub = append(sub, "i.emission_date <= ?")
			args = append(args, q.EmissionTo)
		}
		where = append(where, "EXISTS (SELECT 1 FROM invoice_items i WHERE "+strings.Join(sub, " AND ")+")")
	}

	query := planSelect
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY p.id"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoice plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.InvoicePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice plans: %w", err)
	}
	if len(plans) == 0 {
		return plans, nil
	}

	if err := s.attachChildren(ctx, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *sqlPlanStore) attachChildren(ctx context.Context, plans []*domain.InvoicePlan) error {
	byID := lo.KeyBy(plans, func(p *domain.InvoicePlan) int64 { return p.ID })
	ids := lo.ToAnySlice(lo.Keys(byID))
	in := db.Placeholders(len(ids))

	rows, err := s.query(ctx, `SELECT `+itemColumns+` FROM invoice_items
		WHERE plan_id IN (`+in+`) ORDER BY plan_id, seq_no`, ids...)
	if err != nil {
		return fmt.Errorf("listing invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return err
		}
		if p := byID[it.PlanID]; p != nil {
			p.Items = append(p.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating invoice items: %w", err)
	}

	erows, err := s.query(ctx, `SELECT id, plan_id, email, created_at, updated_at FROM invoice_plan_emails
		WHERE plan_id IN (`+in+`) ORDER BY plan_id, id`, ids...)
	if err != nil {
		return fmt.Errorf("listing invoice plan emails: %w", err)
	}
	defer erows.Close()
	for erows.Next() {
		var (
			e                    domain.InvoicePlanEmail
			createdAt, updatedAt string
		)
		if err := erows.Scan(&e.ID, &e.PlanID, &e.Email, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("scanning invoice plan email: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		e.UpdatedAt = parseTime(updatedAt)
		if p := byID[e.PlanID]; p != nil {
			p.Emails = append(p.Emails, &e)
		}
	}
	if err := erows.Err(); err != nil {
		return fmt.Errorf("iterating invoice plan emails: %w", err)
	}
	return nil
}

func scanPlan(rows *sql.Rows) (*domain.InvoicePlan, error) {
	var (
		p                    domain.InvoicePlan
		planType             string
		firstEmission        sql.NullString
		createdAt, updatedAt string
	)
	err := rows.Scan(&p.ID, &p.EngagementID, &planType, &p.NumInvoices, &p.PaymentTermDays,
		&p.CustomerFocalPointName, &p.CustomerFocalPointEmail, &p.CustomInstructions, &firstEmission,
		&createdAt, &updatedAt, &p.EngagementName, &p.CustomerName)
	if err != nil {
		return nil, fmt.Errorf("scanning invoice plan: %w", err)
	}
	p.Type = domain.PlanType(planType)
	p.FirstEmissionDate = parseNullableDate(firstEmission)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func scanItem(rows *sql.Rows) (*domain.InvoiceItem, error) {
	var (
		it                         domain.InvoiceItem
		status                     string
		emission, due, requestDate sql.NullString
		emittedAt, canceledAt      sql.NullString
		replacement                sql.NullInt64
		createdAt, updatedAt       string
	)
	err := rows.Scan(&it.ID, &it.PlanID, &it.SeqNo, &it.Percentage, &it.Amount, &emission, &due,
		&it.PayerTaxID, &it.PONumber, &it.FRSNumber, &it.TicketNumber, &it.Description, &status,
		&it.RitmNumber, &it.CoeResponsible, &requestDate, &it.BzCode, &emittedAt,
		&canceledAt, &it.CancelReason, &replacement, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning invoice item: %w", err)
	}
	it.Status = domain.ItemStatus(status)
	it.EmissionDate = parseNullableDate(emission)
	it.DueDate = parseNullableDate(due)
	it.RequestDate = parseNullableDate(requestDate)
	it.EmittedAt = parseNullableTime(emittedAt)
	it.CanceledAt = parseNullableTime(canceledAt)
	if replacement.Valid {
		it.ReplacementItemID = lo.ToPtr(replacement.Int64)
	}
	it.CreatedAt = parseTime(createdAt)
	it.UpdatedAt = parseTime(updatedAt)
	return &it, nil
}

func (s *sqlPlanStore) insertPlan(ctx context.Context, p *domain.InvoicePlan) (int64, error) {
	var id int64
	err := s.queryRow(ctx, `INSERT INTO invoice_plans (engagement_id, plan_type, num_invoices, payment_term_days,
			focal_point_name, focal_point_email, custom_instructions, first_emission_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.EngagementID,
		string(p.Type),
		p.NumInvoices,
		p.PaymentTermDays,
		p.CustomerFocalPointName,
		p.CustomerFocalPointEmail,
		p.CustomInstructions,
		nullableDate(p.FirstEmissionDate),
		formatTimestamp(p.CreatedAt),
		formatTimestamp(p.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting invoice plan: %w", err)
	}
	return id, nil
}

func (s *sqlPlanStore) updatePlan(ctx context.Context, p *domain.InvoicePlan) error {
	_, err := s.exec(ctx, `UPDATE invoice_plans SET plan_type = ?, num_invoices = ?, payment_term_days = ?,
			focal_point_name = ?, focal_point_email = ?, custom_instructions = ?, first_emission_date = ?, updated_at = ?
		WHERE id = ?`,
		string(p.Type),
		p.NumInvoices,
		p.PaymentTermDays,
		p.CustomerFocalPointName,
		p.CustomerFocalPointEmail,
		p.CustomInstructions,
		nullableDate(p.FirstEmissionDate),
		formatTimestamp(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating invoice plan %d: %w", p.ID, err)
	}
	return nil
}

func (s *sqlPlanStore) insertItem(ctx context.Context, it *domain.InvoiceItem) (int64, error) {
	var id int64
	err := s.queryRow(ctx, `INSERT INTO invoice_items (plan_id, seq_no, percentage, amount, emission_date, due_date,
			payer_tax_id, po_number, frs_number, ticket_number, description, status,
			ritm_number, coe_responsible, request_date, bz_code, emitted_at,
			canceled_at, cancel_reason, replacement_item_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		it.PlanID,
		it.SeqNo,
		it.Percentage,
		it.Amount,
		nullableDate(it.EmissionDate),
		nullableDate(it.DueDate),
		it.PayerTaxID,
		it.PONumber,
		it.FRSNumber,
		it.TicketNumber,
		it.Description,
		string(it.Status),
		it.RitmNumber,
		it.CoeResponsible,
		nullableDate(it.RequestDate),
		it.BzCode,
		nullableTimestamp(it.EmittedAt),
		nullableTimestamp(it.CanceledAt),
		it.CancelReason,
		nullableInt64(it.ReplacementItemID),
		formatTimestamp(it.CreatedAt),
		formatTimestamp(it.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting invoice item (seq %d): %w", it.SeqNo, err)
	}
	return id, nil
}

// updateItem writes every mutable column of an existing item.
func (s *sqlPlanStore) updateItem(ctx context.Context, it *domain.InvoiceItem) error {
	res, err := s.exec(ctx, `UPDATE invoice_items SET percentage = ?, amount = ?, emission_date = ?, due_date = ?,
			payer_tax_id = ?, po_number = ?, frs_number = ?, ticket_number = ?, description = ?, status = ?,
			ritm_number = ?, coe_responsible = ?, request_date = ?, bz_code = ?, emitted_at = ?,
			canceled_at = ?, cancel_reason = ?, replacement_item_id = ?, updated_at = ?
		WHERE id = ? AND plan_id = ?`,
		it.Percentage,
		it.Amount,
		nullableDate(it.EmissionDate),
		nullableDate(it.DueDate),
		it.PayerTaxID,
		it.PONumber,
		it.FRSNumber,
		it.TicketNumber,
		it.Description,
		string(it.Status),
		it.RitmNumber,
		it.CoeResponsible,
		nullableDate(it.RequestDate),
		it.BzCode,
		nullableTimestamp(it.EmittedAt),
		nullableTimestamp(it.CanceledAt),
		it.CancelReason,
		nullableInt64(it.ReplacementItemID),
		formatTimestamp(it.UpdatedAt),
		it.ID,
		it.PlanID,
	)
	if err != nil {
		return fmt.Errorf("updating invoice item %d: %w", it.ID, err)
	}
	return expectOneRow(res, fmt.Sprintf("invoice item %d", it.ID))
}

func (s *sqlPlanStore) deleteItem(ctx context.Context, it *domain.InvoiceItem) error {
	if _, err := s.exec(ctx, `DELETE FROM invoice_items WHERE id = ? AND plan_id = ?`, it.ID, it.PlanID); err != nil {
		return fmt.Errorf("deleting invoice item %d: %w", it.ID, err)
	}
	return nil
}

func (s *sqlPlanStore) insertEmail(ctx context.Context, e *domain.InvoicePlanEmail) (int64, error) {
	var id int64
	err := s.queryRow(ctx, `INSERT INTO invoice_plan_emails (plan_id, email, created_at, updated_at)
		VALUES (?, ?, ?, ?) RETURNING id`,
		e.PlanID, e.Email, formatTimestamp(e.CreatedAt), formatTimestamp(e.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting invoice plan email: %w", err)
	}
	return id, nil
}

func (s *sqlPlanStore) updateEmail(ctx context.Context, e *domain.InvoicePlanEmail) error {
	if _, err := s.exec(ctx, `UPDATE invoice_plan_emails SET email = ?, updated_at = ? WHERE id = ? AND plan_id = ?`,
		e.Email, formatTimestamp(e.UpdatedAt), e.ID, e.PlanID); err != nil {
		return fmt.Errorf("updating invoice plan email %d: %w", e.ID, err)
	}
	return nil
}

func (s *sqlPlanStore) deleteEmail(ctx context.Context, e *domain.InvoicePlanEmail) error {
	if _, err := s.exec(ctx, `DELETE FROM invoice_plan_emails WHERE id = ? AND plan_id = ?`, e.ID, e.PlanID); err != nil {
		return fmt.Errorf("deleting invoice plan email %d: %w", e.ID, err)
	}
	return nil
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil // driver cannot report affected rows
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
