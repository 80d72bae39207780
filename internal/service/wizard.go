package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/repository"
)

// DraftStore keeps wizard drafts between requests.  Get returns
// repository.ErrNotFound for missing or expired drafts and Lock returns
// repository.ErrLocked when the draft is already being submitted.
type DraftStore interface {
	Get(ctx context.Context, id string) (*model.Draft, error)
	Save(ctx context.Context, d *model.Draft) error
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string, ttl time.Duration) (func(), error)
}

// ProductReader lists the product catalogue.
type ProductReader interface {
	List(ctx context.Context) ([]model.Product, error)
}

// ReservationWriter persists a reservation together with its items, all
// or nothing.  A live booking of the same table and date yields
// repository.ErrConflict.
type ReservationWriter interface {
	CreateWithItems(ctx context.Context, res *model.Reservation) error
}

// WizardDeps collects the collaborators of the wizard.
type WizardDeps struct {
	Drafts       DraftStore
	Mesas        MesaReader
	Products     ProductReader
	Reservations ReservationWriter
	Resolver     *AvailabilityResolver
	Vip          *VipValidator
	Rules        *Rules
	Events       EventPublisher
	NewID        func() string
}

// Wizard drives the three-step booking flow: date and table, products,
// contact details.  Steps only advance through Next, whose guards re-check
// availability and minimum consumption; Back keeps everything entered.
type Wizard struct {
	drafts       DraftStore
	mesas        MesaReader
	products     ProductReader
	reservations ReservationWriter
	resolver     *AvailabilityResolver
	vip          *VipValidator
	rules        *Rules
	events       EventPublisher
	newID        func() string
}

const submitLockTTL = 30 * time.Second

// MaxQuantityPerLine caps one product line of a draft.
const MaxQuantityPerLine = 999

// NewWizard wires a wizard.
func NewWizard(deps WizardDeps) *Wizard {
	w := &Wizard{
		drafts:       deps.Drafts,
		mesas:        deps.Mesas,
		products:     deps.Products,
		reservations: deps.Reservations,
		resolver:     deps.Resolver,
		vip:          deps.Vip,
		rules:        deps.Rules,
		events:       deps.Events,
		newID:        deps.NewID,
	}
	if w.events == nil {
		w.events = NopPublisher{}
	}
	if w.newID == nil {
		w.newID = uuid.NewString
	}
	return w
}

// DraftView is a draft plus everything derived from it: the selected
// table, priced lines, the consumption check and the recommended package.
// Availability is filled only by SelectDate.
type DraftView struct {
	*model.Draft
	Mesa               *model.Mesa             `json:"mesa,omitempty"`
	Lines              []model.ReservationItem `json:"lines"`
	TotalCents         int64                   `json:"total_cents"`
	MinSpendCents      int64                   `json:"min_spend_cents"`
	Sufficient         bool                    `json:"sufficient"`
	RecommendedPackage *model.Product          `json:"recommended_package,omitempty"`
	Availability       []MesaAvailability      `json:"availability,omitempty"`
}

// DetailsInput is the contact step.
type DetailsInput struct {
	Name      string
	Phone     string
	Email     string
	TimeSlot  string
	PartySize uint32
}

// SubmitResult is a committed reservation.  VipConsumeErr reports a VIP
// code that could not be spent after the booking was stored; the booking
// stands regardless.
type SubmitResult struct {
	Reservation   model.Reservation
	VipConsumeErr error
}

// Start opens a new draft at the first step.
func (w *Wizard) Start(ctx context.Context) (*DraftView, error) {
	d := model.NewDraft(w.newID(), w.rules.Now().UTC())
	if err := w.save(ctx, d); err != nil {
		return nil, err
	}
	return w.view(ctx, d)
}

// Get returns the draft with its derived values.
func (w *Wizard) Get(ctx context.Context, id string) (*DraftView, error) {
	d, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return w.view(ctx, d)
}

// SelectDate sets the night and recomputes availability for every table.
// A selected table that is not bookable on the new date is deselected and
// a notice is left on the draft.
func (w *Wizard) SelectDate(ctx context.Context, id, raw string) (*DraftView, error) {
	d, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Step != model.StepSelectingTable {
		return nil, invalid("step", "go back to the table step to change the date")
	}
	date, err := model.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return nil, invalid("date", err.Error())
	}
	if err := w.rules.CheckReservationDate(date); err != nil {
		return nil, err
	}
	all, err := w.resolver.ResolveAll(ctx, date, d.HasValidVip)
	if err != nil {
		return nil, err
	}
	d.Date = model.FormatDate(date)
	d.Notice = ""
	if d.MesaID != nil {
		name, reason := "the selected table", ReasonNotFound
		for _, a := range all {
			if a.Mesa.ID == *d.MesaID {
				name, reason = a.Mesa.Name, a.Reason
				if a.Bookable {
					reason = ""
				}
				break
			}
		}
		if reason != "" {
			d.ClearMesa(fmt.Sprintf("%s is not available on %s: %s", name, d.Date, reason))
		}
	}
	if err := w.save(ctx, d); err != nil {
		return nil, err
	}
	v, err := w.view(ctx, d)
	if err != nil {
		return nil, err
	}
	v.Availability = all
	return v, nil
}

// SelectMesa picks a table for the selected date.  Unbookable tables are
// refused with the resolver's reason.
func (w *Wizard) SelectMesa(ctx context.Context, id string, mesaID uint64) (*DraftView, error) {
	d, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Step != model.StepSelectingTable {
		return nil, invalid("step", "go back to the table step to change the table")
	}
	date, err := draftDate(d)
	if err != nil {
		return nil, err
	}
	m, err := w.mesa(ctx, mesaID)
	if err != nil {
		return nil, err
	}
	if a := w.resolver.ResolveMesa(ctx, *m, date, d.HasValidVip); !a.Bookable {
		return nil, invalid("mesa_id", a.Reason)
	}
	d.MesaID = &m.ID
	d.Notice = ""
	if err := w.save(ctx, d); err != nil {
		return nil, err
	}
	return w.view(ctx, d)
}

// ApplyVipCode validates and stores a VIP code; an empty code removes it.
// An invalid code never blocks the wizard, but a selected gold table is
// released and the draft returns to the table step.
func (w *Wizard) ApplyVipCode(ctx context.Context, id, raw string) (*DraftView, VipResult, error) {
	d, err := w.load(ctx, id)
	if err != nil {
		return nil, VipResult{}, err
	}
	var res VipResult
	if strings.TrimSpace(raw) != "" {
		res = w.vip.Check(ctx, raw)
	}
	if res.Reason == VipReasonUnverified {
		return nil, res, fmt.Errorf("%w: vip code could not be verified", ErrPersistence)
	}
	d.HasValidVip = res.Valid
	d.VipCode = ""
	if res.Valid {
		d.VipCode = res.Code
	}
	d.Notice = ""
	if !d.HasValidVip && d.MesaID != nil {
		m, err := w.mesa(ctx, *d.MesaID)
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			d.ClearMesa("the selected table no longer exists")
			d.Step = model.StepSelectingTable
		case err != nil:
			return nil, res, err
		case m.Category.RequiresVip():
			d.ClearMesa(fmt.Sprintf("%s requires a valid VIP code", m.Name))
			d.Step = model.StepSelectingTable
		}
	}
	if err := w.save(ctx, d); err != nil {
		return nil, res, err
	}
	v, err := w.view(ctx, d)
	return v, res, err
}

// SetQuantities updates product quantities on the products step.  Zero
// removes a product.
func (w *Wizard) SetQuantities(ctx context.Context, id string, quantities map[uint64]uint32) (*DraftView, error) {
	d, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Step != model.StepSelectingProducts {
		return nil, invalid("step", "products are chosen on the second step")
	}
	products, err := w.productList(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[uint64]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}
	for pid, q := range quantities {
		if !known[pid] {
			return nil, invalid("products", fmt.Sprintf("product %d not found", pid))
		}
		if q > MaxQuantityPerLine {
			return nil, invalid("products", fmt.Sprintf("at most %d of product %d", MaxQuantityPerLine, pid))
		}
	}
	for pid, q := range quantities {
		d.SetQuantity(pid, q)
	}
	if err := w.save(ctx, d); err != nil {
		return nil, err
	}
	return w.view(ctx, d)
}

// SetDetails stores the contact step.  Completeness is checked at submit.
func (w *Wizard) SetDetails(ctx context.Context, id string, in DetailsInput) (*DraftView, error) {
	d, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Step != model.StepEnteringDetails {
		return nil, invalid("step", "contact details are entered on the third step")
	}
	slot := strings.TrimSpace(in.TimeSlot)
	if slot != "" && !model.ValidTimeSlot(slot) {
		return nil, invalid("time_slot", "choose one of "+strings.Join(model.TimeSlots, ", "))
	}
	if in.PartySize > 0 && d.MesaID != nil {
		m, err := w.mesa(ctx, *d.MesaID)
		if err != nil {
			return nil, err
		}
		if in.PartySize > m.Capacity {
			return nil, invalid("party_size", fmt.Sprintf("%s seats at most %d", m.Name, m.Capacity))
		}
	}
	d.ContactName = strings.TrimSpace(in.Name)
	d.ContactPhone = strings.TrimSpace(in.Phone)
	d.ContactEmail = strings.TrimSpace(in.Email)
	d.TimeSlot = slot
	d.PartySize = in.PartySize
	if err := w.save(ctx, d); err != nil {
		return nil, err
	}
	return w.view(ctx, d)
}

// Next advances one step if its guard holds.  Leaving the table step
// re-verifies the table; an unbookable table is released and reported as
// ErrAvailabilityConflict.  Leaving the products step requires the
// minimum consumption.
func (w *Wizard) Next(ctx context.Context, id string) (*DraftView, error) {
	d, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch d.Step {
	case model.StepSelectingTable:
		date, err := draftDate(d)
		if err != nil {
			return nil, err
		}
		if d.MesaID == nil {
			return nil, invalid("mesa_id", "select a table")
		}
		if err := w.rules.CheckReservationDate(date); err != nil {
			return nil, err
		}
		m, err := w.mesa(ctx, *d.MesaID)
		if err != nil {
			return nil, err
		}
		a := w.resolver.ResolveMesa(ctx, *m, date, d.HasValidVip)
		if a.Reason == ReasonUnverified {
			return nil, fmt.Errorf("%w: %s", ErrPersistence, a.Reason)
		}
		if !a.Bookable {
			return nil, w.sendBack(ctx, d, m.Name, a.Reason)
		}
		d.Step = model.StepSelectingProducts
	case model.StepSelectingProducts:
		if d.MesaID == nil {
			return nil, invalid("mesa_id", "select a table")
		}
		m, err := w.mesa(ctx, *d.MesaID)
		if err != nil {
			return nil, err
		}
		products, err := w.productList(ctx)
		if err != nil {
			return nil, err
		}
		if total := Total(products, d.Quantities); !Sufficient(total, m.MinSpendCents) {
			return nil, insufficient(m, total)
		}
		d.Step = model.StepEnteringDetails
	default:
		return nil, invalid("step", "this is the last step, submit the reservation")
	}
	d.Notice = ""
	if err := w.save(ctx, d); err != nil {
		return nil, err
	}
	return w.view(ctx, d)
}

// Back returns to the previous step without discarding anything.
func (w *Wizard) Back(ctx context.Context, id string) (*DraftView, error) {
	d, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch d.Step {
	case model.StepSelectingProducts:
		d.Step = model.StepSelectingTable
	case model.StepEnteringDetails:
		d.Step = model.StepSelectingProducts
	default:
		return nil, invalid("step", "already at the first step")
	}
	if err := w.save(ctx, d); err != nil {
		return nil, err
	}
	return w.view(ctx, d)
}

// Submit turns the draft into a pending reservation.  Only one submit per
// draft runs at a time.  Table and consumption are re-checked, prices are
// snapshotted, and the reservation with its items is written in one
// transaction.  A VIP code is consumed only after that write.  On any
// failure before the write commits the draft is kept for a retry.
func (w *Wizard) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	lctx, cancel := w.rules.bounded(ctx)
	unlock, err := w.drafts.Lock(lctx, id, submitLockTTL)
	cancel()
	if errors.Is(err, repository.ErrLocked) {
		return nil, ErrSubmitInFlight
	}
	if err != nil {
		return nil, persistence("lock draft", err)
	}
	defer unlock()

	d, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Step != model.StepEnteringDetails {
		return nil, invalid("step", "complete the previous steps first")
	}
	if err := validateDetails(d); err != nil {
		return nil, err
	}
	date, err := draftDate(d)
	if err != nil {
		return nil, err
	}
	if err := w.rules.CheckReservationDate(date); err != nil {
		return nil, err
	}
	if d.MesaID == nil {
		return nil, invalid("mesa_id", "select a table")
	}
	m, err := w.mesa(ctx, *d.MesaID)
	if err != nil {
		return nil, err
	}
	slot := d.TimeSlot
	if slot == "" {
		slot = model.TimeSlots[0]
	}
	party := d.PartySize
	if party == 0 {
		party = 1
	}
	if party > m.Capacity {
		return nil, invalid("party_size", fmt.Sprintf("%s seats at most %d", m.Name, m.Capacity))
	}

	hasVip := false
	if d.HasValidVip {
		vr := w.vip.Check(ctx, d.VipCode)
		if vr.Reason == VipReasonUnverified {
			return nil, fmt.Errorf("%w: vip code could not be verified", ErrPersistence)
		}
		hasVip = vr.Valid
	}
	if a := w.resolver.ResolveMesa(ctx, *m, date, hasVip); !a.Bookable {
		if a.Reason == ReasonUnverified {
			return nil, fmt.Errorf("%w: %s", ErrPersistence, a.Reason)
		}
		if d.HasValidVip && !hasVip {
			d.HasValidVip, d.VipCode = false, ""
		}
		return nil, w.sendBack(ctx, d, m.Name, a.Reason)
	}

	products, err := w.productList(ctx)
	if err != nil {
		return nil, err
	}
	total := Total(products, d.Quantities)
	if !Sufficient(total, m.MinSpendCents) {
		return nil, insufficient(m, total)
	}

	res := &model.Reservation{
		MesaID:        m.ID,
		MesaName:      m.Name,
		ContactName:   d.ContactName,
		ContactPhone:  d.ContactPhone,
		ContactEmail:  d.ContactEmail,
		Date:          date,
		TimeSlot:      slot,
		PartySize:     party,
		TotalCents:    total,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentUnpaid,
		Items:         LineItems(products, d.Quantities),
	}
	if hasVip {
		code := d.VipCode
		res.VipCode = &code
	}
	wctx, cancel := w.rules.bounded(ctx)
	err = w.reservations.CreateWithItems(wctx, res)
	cancel()
	if errors.Is(err, repository.ErrConflict) {
		return nil, w.sendBack(ctx, d, m.Name, ReasonBooked)
	}
	if err != nil {
		return nil, persistence("save reservation", err)
	}

	out := &SubmitResult{Reservation: *res}
	if hasVip {
		out.VipConsumeErr = w.vip.Consume(ctx, d.VipCode)
	}
	_ = w.events.ReservationCreated(ctx, *res)
	dctx, cancel := w.rules.bounded(ctx)
	defer cancel()
	if err := w.drafts.Delete(dctx, d.ID); err != nil {
		log.Printf("wizard: delete submitted draft %s: %v", d.ID, err)
	}
	return out, nil
}

// Abandon discards the draft.
func (w *Wizard) Abandon(ctx context.Context, id string) error {
	ctx, cancel := w.rules.bounded(ctx)
	defer cancel()
	if err := w.drafts.Delete(ctx, id); err != nil {
		return persistence("delete draft", err)
	}
	return nil
}

// sendBack releases the table, returns the draft to the first step and
// reports the conflict.
func (w *Wizard) sendBack(ctx context.Context, d *model.Draft, mesaName, reason string) error {
	d.ClearMesa(fmt.Sprintf("%s is not available on %s: %s", mesaName, d.Date, reason))
	d.Step = model.StepSelectingTable
	if err := w.save(ctx, d); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrAvailabilityConflict, reason)
}

func (w *Wizard) load(ctx context.Context, id string) (*model.Draft, error) {
	ctx, cancel := w.rules.bounded(ctx)
	defer cancel()
	d, err := w.drafts.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, persistence("load draft", err)
	}
	if d.Quantities == nil {
		d.Quantities = map[uint64]uint32{}
	}
	return d, nil
}

func (w *Wizard) save(ctx context.Context, d *model.Draft) error {
	ctx, cancel := w.rules.bounded(ctx)
	defer cancel()
	d.UpdatedAt = w.rules.Now().UTC()
	if err := w.drafts.Save(ctx, d); err != nil {
		return persistence("save draft", err)
	}
	return nil
}

func (w *Wizard) mesa(ctx context.Context, id uint64) (*model.Mesa, error) {
	ctx, cancel := w.rules.bounded(ctx)
	defer cancel()
	m, err := w.mesas.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid("mesa_id", ReasonNotFound)
	}
	if err != nil {
		return nil, persistence("load table", err)
	}
	return m, nil
}

func (w *Wizard) productList(ctx context.Context) ([]model.Product, error) {
	ctx, cancel := w.rules.bounded(ctx)
	defer cancel()
	products, err := w.products.List(ctx)
	if err != nil {
		return nil, persistence("list products", err)
	}
	return products, nil
}

func (w *Wizard) view(ctx context.Context, d *model.Draft) (*DraftView, error) {
	products, err := w.productList(ctx)
	if err != nil {
		return nil, err
	}
	v := &DraftView{
		Draft:      d,
		Lines:      LineItems(products, d.Quantities),
		TotalCents: Total(products, d.Quantities),
	}
	if d.MesaID != nil {
		m, err := w.mesa(ctx, *d.MesaID)
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
		case err != nil:
			return nil, err
		default:
			v.Mesa = m
			v.MinSpendCents = m.MinSpendCents
			v.Sufficient = Sufficient(v.TotalCents, m.MinSpendCents)
			v.RecommendedPackage = RecommendedPackage(products, m.MinSpendCents)
		}
	}
	return v, nil
}

func draftDate(d *model.Draft) (time.Time, error) {
	if d.Date == "" {
		return time.Time{}, invalid("date", "select a date")
	}
	date, err := model.ParseDate(d.Date)
	if err != nil {
		return time.Time{}, invalid("date", err.Error())
	}
	return date, nil
}

func validateDetails(d *model.Draft) error {
	switch {
	case d.ContactName == "":
		return invalid("contact_name", "name is required")
	case d.ContactPhone == "":
		return invalid("contact_phone", "phone is required")
	case d.ContactEmail == "":
		return invalid("contact_email", "email is required")
	case !strings.Contains(d.ContactEmail, "@"):
		return invalid("contact_email", "email is not valid")
	}
	return nil
}

func insufficient(m *model.Mesa, total int64) error {
	return invalid("products", fmt.Sprintf("minimum consumption for %s is %s, selected %s",
		m.Name, FormatCents(m.MinSpendCents), FormatCents(total)))
}

// FormatCents renders minor units as a decimal amount ("1800.00").
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
