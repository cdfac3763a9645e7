package itinerary

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/phpdave11/gofpdf"

	"tripplanner/internal/bill"
	"tripplanner/internal/note"
	"tripplanner/internal/trip"
	"tripplanner/internal/util"
	"tripplanner/models"
)

type ItineraryService struct {
	Trips *trip.TripService
	Notes *note.NoteService
	Bills *bill.BillService
}

func NewItineraryService(tripService *trip.TripService, noteService *note.NoteService, billService *bill.BillService) *ItineraryService {
	return &ItineraryService{Trips: tripService, Notes: noteService, Bills: billService}
}

// Data is everything printed on an itinerary
type Data struct {
	Trip     *models.Trip
	Members  []*models.TripMember
	Notes    []*models.Note
	Bills    []*models.Bill
	Balances []bill.CurrencyBalances
}

func (s *ItineraryService) Load(ctx context.Context, t *models.Trip) (*Data, error) {
	members, err := s.Trips.Members(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	notes, err := s.Notes.ListForTrip(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	bills, err := s.Bills.ListForTrip(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	balances, err := s.Bills.Balances(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return &Data{Trip: t, Members: members, Notes: notes, Bills: bills, Balances: balances}, nil
}

// Generate renders the trip's itinerary and returns the PDF with its file name
func (s *ItineraryService) Generate(ctx context.Context, t *models.Trip) ([]byte, string, error) {
	data, err := s.Load(ctx, t)
	if err != nil {
		return nil, "", err
	}
	return BuildPDF(data)
}

// BuildPDF lays out an itinerary on A4 pages
func BuildPDF(d *Data) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(d.Trip.Title), false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(d.Trip.Title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Destination : %s", safe(d.Trip.Destination, "-")),
		fmt.Sprintf("Dates       : %s - %s (%d days)",
			d.Trip.StartDate.Format("02 Jan 2006"), d.Trip.EndDate.Format("02 Jan 2006"), d.Trip.Days()),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, tr(s))
		pdf.Ln(7)
	}
	if d.Trip.Description != "" {
		pdf.Ln(2)
		pdf.MultiCell(0, 6, tr(d.Trip.Description), "", "", false)
	}

	names := make(map[string]string, len(d.Members))
	section(pdf, "Members")
	for _, m := range d.Members {
		name := m.UserID
		if m.User != nil {
			name = m.User.FullName()
		}
		names[m.UserID] = name
		pdf.Cell(0, 6, tr("- "+name))
		pdf.Ln(6)
	}

	if len(d.Notes) > 0 {
		section(pdf, "Notes")
		for _, n := range d.Notes {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.Cell(0, 6, tr(n.Title))
			pdf.Ln(7)
			pdf.SetFont("Helvetica", "", 10)
			if n.Content != "" {
				pdf.MultiCell(0, 5, tr(n.Content), "", "", false)
			}
			pdf.Ln(3)
		}
	}

	if len(d.Bills) > 0 {
		section(pdf, "Bills")
		pdf.SetFont("Helvetica", "", 10)
		for _, b := range d.Bills {
			line := fmt.Sprintf("%s  %-14s %14s  paid by %s",
				b.CreatedAt.Format("2006-01-02"), b.ExpenseCategory.Label(),
				util.FormatMoney(b.TotalAmount, b.Currency), nameOf(names, b.PaidBy))
			if b.Comment != "" {
				line += " - " + b.Comment
			}
			pdf.Cell(0, 6, tr(line))
			pdf.Ln(6)
		}

		section(pdf, "Settlement")
		pdf.SetFont("Helvetica", "", 10)
		for _, cb := range d.Balances {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.Cell(0, 6, tr(fmt.Sprintf("%s (total %s)", cb.Currency, util.FormatMoney(cb.Total, cb.Currency))))
			pdf.Ln(6)
			pdf.SetFont("Helvetica", "", 10)
			if len(cb.Transfers) == 0 {
				pdf.Cell(0, 6, "All settled.")
				pdf.Ln(6)
			}
			for _, t := range cb.Transfers {
				pdf.Cell(0, 6, tr(fmt.Sprintf("%s pays %s to %s",
					nameOf(names, t.From), util.FormatMoney(t.Amount, cb.Currency), nameOf(names, t.To))))
				pdf.Ln(6)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("itinerary_%s.pdf", safeFilenamePart(d.Trip.Title))
	return buf.Bytes(), filename, nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
}

func nameOf(names map[string]string, userID string) string {
	if name, ok := names[userID]; ok {
		return name
	}
	return "former member"
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func safeFilenamePart(s string) string {
	s = unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "trip"
	}
	return s
}
