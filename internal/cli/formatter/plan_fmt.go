package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/invoiceplan/internal/contract"
	"github.com/alexanderramin/invoiceplan/internal/domain"
)

// FormatPlan renders a plan header box followed by its items.
func FormatPlan(p *domain.InvoicePlan) string {
	var head strings.Builder
	fmt.Fprintf(&head, "%s %s\n", Dim("Engagement:"), Bold(p.EngagementID)+" "+Dim(p.EngagementName))
	fmt.Fprintf(&head, "%s %s\n", Dim("Customer:  "), Text(p.CustomerName))
	fmt.Fprintf(&head, "%s %s, %d invoices, %d days to pay\n", Dim("Plan:      "), p.Type, p.NumInvoices, p.PaymentTermDays)
	focal := p.CustomerFocalPointName
	if p.CustomerFocalPointEmail != "" {
		focal = strings.TrimSpace(focal + " <" + p.CustomerFocalPointEmail + ">")
	}
	fmt.Fprintf(&head, "%s %s", Dim("Focal:     "), Text(focal))
	if len(p.Emails) > 0 {
		emails := make([]string, len(p.Emails))
		for i, e := range p.Emails {
			emails[i] = e.Email
		}
		fmt.Fprintf(&head, "\n%s %s", Dim("Also to:   "), strings.Join(emails, ", "))
	}

	var b strings.Builder
	b.WriteString(RenderBox(fmt.Sprintf("Invoice plan %d", p.ID), head.String()))
	b.WriteString("\n\n")
	if len(p.Items) == 0 {
		b.WriteString(Dim("No items.") + "\n")
		return b.String()
	}

	headers := []string{"#", "ID", "STATUS", "AMOUNT", "PCT", "EMISSION", "DUE", "RITM", "BZ", "NOTE"}
	rows := make([][]string, 0, len(p.Items))
	for _, it := range p.Items {
		note := Truncate(it.Description, 30)
		if it.Status == domain.ItemCanceled && it.ReplacementItemID != nil {
			note = fmt.Sprintf("→ item %d (%s)", *it.ReplacementItemID, Truncate(it.CancelReason, 20))
		}
		rows = append(rows, []string{
			strconv.Itoa(it.SeqNo),
			Dim(strconv.FormatInt(it.ID, 10)),
			StatusPill(it.Status),
			Money(it.Amount),
			Percent(it.Percentage),
			Date(it.EmissionDate),
			Date(it.DueDate),
			Text(it.RitmNumber),
			Text(it.BzCode),
			Text(note),
		})
	}
	b.WriteString(RenderTable(headers, rows, 3, 4))
	return b.String()
}

// FormatPlanList renders one line per plan.
func FormatPlanList(plans []*domain.InvoicePlan) string {
	if len(plans) == 0 {
		return Dim("No invoice plans found.") + "\n"
	}
	headers := []string{"ID", "ENGAGEMENT", "CUSTOMER", "TYPE", "ITEMS", "OPEN"}
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		open := 0
		for _, it := range p.Items {
			if !it.Status.IsTerminal() {
				open++
			}
		}
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.EngagementID,
			Text(p.CustomerName),
			string(p.Type),
			strconv.Itoa(len(p.Items)),
			strconv.Itoa(open),
		})
	}
	return RenderTable(headers, rows, 4, 5)
}

// FormatPending renders items awaiting request or emission.
func FormatPending(title string, items []contract.PendingItem) string {
	var b strings.Builder
	b.WriteString(Header(title) + "\n")
	if len(items) == 0 {
		b.WriteString(Dim("Nothing pending.") + "\n")
		return b.String()
	}
	headers := []string{"PLAN", "#", "ITEM", "ENGAGEMENT", "CUSTOMER", "AMOUNT", "EMISSION", "RITM"}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			strconv.FormatInt(it.PlanID, 10),
			strconv.Itoa(it.SeqNo),
			Dim(strconv.FormatInt(it.ItemID, 10)),
			Text(it.EngagementName),
			Text(it.CustomerName),
			Money(it.Amount),
			Date(it.EmissionDate),
			Text(it.RitmNumber),
		})
	}
	b.WriteString(RenderTable(headers, rows, 5))
	return b.String()
}

// FormatSummary renders the per-engagement summary and totals.
func FormatSummary(res *contract.SummaryResult) string {
	var b strings.Builder
	b.WriteString(Header("Invoice summary") + "\n")
	if res == nil || len(res.Groups) == 0 {
		b.WriteString(Dim("No matching items.") + "\n")
		return b.String()
	}

	headers := []string{"ENGAGEMENT", "CUSTOMER", "PLANS", "ITEMS", "AMOUNT", "PCT", "BY STATUS"}
	rows := make([][]string, 0, len(res.Groups)+1)
	for _, g := range res.Groups {
		rows = append(rows, []string{
			g.EngagementID + " " + Dim(g.EngagementName),
			Text(g.CustomerName),
			strconv.Itoa(g.PlanCount),
			strconv.Itoa(g.ItemCount),
			Money(g.Amount),
			Percent(g.Percentage),
			statusCounts(g.StatusCounts),
		})
	}
	rows = append(rows, []string{Bold("TOTAL"), "", "", strconv.Itoa(res.TotalItems), Bold(Money(res.TotalAmount)), Percent(res.TotalPercentage), ""})
	b.WriteString(RenderTable(headers, rows, 2, 3, 4, 5))
	return b.String()
}

func statusCounts(counts map[domain.ItemStatus]int) string {
	var parts []string
	for _, s := range domain.AllItemStatuses {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", s, n))
		}
	}
	return strings.Join(parts, ", ")
}

// FormatPreviews renders the notifications due on one date.
func FormatPreviews(previews []contract.NotificationPreview) string {
	if len(previews) == 0 {
		return Dim("No notifications due on this date.") + "\n"
	}
	var b strings.Builder
	for i, pv := range previews {
		if i > 0 {
			b.WriteString("\n")
		}
		var body strings.Builder
		fmt.Fprintf(&body, "%s %s (%s)\n", Dim("Engagement:"), pv.EngagementID, Text(pv.EngagementName))
		fmt.Fprintf(&body, "%s %s\n", Dim("Customer:  "), Text(pv.CustomerName))
		fmt.Fprintf(&body, "%s %s  %s\n", Dim("Amount:    "), Money(pv.Amount), Dim(Percent(pv.Percentage)))
		fmt.Fprintf(&body, "%s %s\n", Dim("Emission:  "), pv.EmissionDate.Format(domain.DateLayout))
		fmt.Fprintf(&body, "%s %s\n", Dim("To:        "), Text(strings.Join(pv.Recipients, ", ")))
		fmt.Fprintf(&body, "%s %s", Dim("Attn:      "), Text(pv.FocalPointName))
		if pv.Description != "" {
			fmt.Fprintf(&body, "\n%s %s", Dim("Concept:   "), pv.Description)
		}
		if pv.CustomInstructions != "" {
			fmt.Fprintf(&body, "\n%s %s", Dim("Notes:     "), pv.CustomInstructions)
		}
		b.WriteString(RenderBox(fmt.Sprintf("Plan %d · item %d", pv.PlanID, pv.SeqNo), body.String()))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSaveResult renders write counts on one line.
func FormatSaveResult(action string, res contract.SaveResult) string {
	return fmt.Sprintf("%s %s %s\n", StyleGreen.Render("✔"), action,
		Dim(fmt.Sprintf("(%d created, %d updated, %d deleted)", res.Created, res.Updated, res.Deleted)))
}
