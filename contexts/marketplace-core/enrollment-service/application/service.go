package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wellagora/contexts/marketplace-core/enrollment-service/domain/entities"
	domainerrors "wellagora/contexts/marketplace-core/enrollment-service/domain/errors"
	"wellagora/contexts/marketplace-core/enrollment-service/ports"
)

type Service struct {
	Programs    ports.ProgramRepository
	Enrollments ports.EnrollmentRepository
	Checkouts   ports.CheckoutRepository
	Payments    ports.CheckoutProvider
	Sponsorship ports.SponsorshipGateway
	Notifier    ports.Notifier
	Nudges      ports.NudgeEvaluator
	Outbox      ports.OutboxWriter
	EventDedup  ports.EventDedupStore
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	CheckoutTTL time.Duration
	DedupTTL    time.Duration
	Logger      *slog.Logger
}

// Decision is the answer to "can this user enroll, and on what terms".
type Decision struct {
	Allowed             bool
	Treatment           entities.Treatment
	Reason              string
	ListPrice           int64
	UserPays            int64
	SponsorContribution int64
	SponsorName         string
	CreatorEarning      int64
	PlatformFee         int64
	Currency            string
}

type EnrollResult struct {
	Enrollment entities.Enrollment
	Program    entities.Program
}

type CheckoutResult struct {
	CheckoutID  string
	RedirectURL string
	Amount      int64
	Currency    string
}

type FinalizeResult struct {
	Enrollment entities.Enrollment
	Replayed   bool
}

// Decide runs the eligibility checks in order (availability, capacity) and
// then selects the pricing treatment: sponsored when an active rule still has
// budget and seats, free when the list price is zero, paid otherwise.
func (s Service) Decide(ctx context.Context, programID string, userID string) (Decision, error) {
	programID = strings.TrimSpace(programID)
	userID = strings.TrimSpace(userID)
	if programID == "" || userID == "" {
		return Decision{}, domainerrors.ErrInvalidInput
	}

	program, err := s.Programs.GetProgram(ctx, programID)
	if err != nil {
		return Decision{}, err
	}

	if _, err := s.Enrollments.GetEnrollment(ctx, programID, userID); err == nil {
		return Decision{
			Allowed:   true,
			Treatment: entities.TreatmentOpen,
			Reason:    "already_enrolled",
			ListPrice: program.PriceHUF,
			Currency:  entities.NormalizeCurrency(program.Currency),
		}, nil
	} else if !isNotFound(err) {
		return Decision{}, err
	}

	decision := Decision{
		ListPrice: program.PriceHUF,
		Currency:  entities.NormalizeCurrency(program.Currency),
	}
	if allowed, reason := program.CanEnroll(); !allowed {
		decision.Reason = reason
		if reason == entities.ReasonFull {
			decision.Treatment = entities.TreatmentFull
		} else {
			decision.Treatment = entities.TreatmentUnavailable
		}
		return decision, nil
	}

	decision.Allowed = true
	decision.Reason = entities.ReasonOK

	if quote, ok := s.quoteSponsorship(ctx, program); ok {
		decision.Treatment = entities.TreatmentSponsored
		decision.UserPays = quote.MemberOwes
		decision.SponsorContribution = quote.SponsorContribution
		decision.SponsorName = quote.SponsorName
		decision.CreatorEarning, decision.PlatformFee = entities.SplitRevenue(program.PriceHUF)
		return decision, nil
	}

	if program.IsFree() {
		decision.Treatment = entities.TreatmentFree
		return decision, nil
	}

	decision.Treatment = entities.TreatmentPaid
	decision.UserPays = program.PriceHUF
	decision.CreatorEarning, decision.PlatformFee = entities.SplitRevenue(program.PriceHUF)
	return decision, nil
}

// EnrollFree enrolls a user into a program with no payment due: either a
// free-listed program or a seat fully covered by an active sponsorship rule.
// The enrollment insert and the participant increment are one atomic unit in
// the repository; the unique (program, user) key is the duplicate gate.
func (s Service) EnrollFree(ctx context.Context, programID string, userID string) (EnrollResult, error) {
	programID = strings.TrimSpace(programID)
	userID = strings.TrimSpace(userID)
	if programID == "" || userID == "" {
		return EnrollResult{}, domainerrors.ErrInvalidInput
	}

	program, err := s.Programs.GetProgram(ctx, programID)
	if err != nil {
		return EnrollResult{}, err
	}
	if allowed, reason := program.CanEnroll(); !allowed {
		if reason == entities.ReasonFull {
			return EnrollResult{}, domainerrors.ErrProgramFull
		}
		return EnrollResult{}, domainerrors.ErrProgramNotPublished
	}

	accessType := entities.AccessTypeFree
	var contribution int64
	var ruleID, allocationID string
	if quote, ok := s.quoteSponsorship(ctx, program); ok && quote.MemberOwes == 0 {
		reservation, err := s.Sponsorship.Reserve(ctx, quote.RuleID, programID, userID, quote.SponsorContribution, quote.Currency)
		if err == nil {
			accessType = entities.AccessTypeSponsored
			contribution = quote.SponsorContribution
			ruleID = quote.RuleID
			allocationID = reservation.AllocationID
		}
		// Reservation failure means the quota raced away; the seat falls back
		// to standard treatment below.
	}
	if accessType == entities.AccessTypeFree && !program.IsFree() {
		return EnrollResult{}, domainerrors.ErrNotFreeProgram
	}

	now := s.now()
	enrollmentID, err := s.IDGen.NewID(ctx)
	if err != nil {
		s.releaseReservation(ctx, allocationID)
		return EnrollResult{}, err
	}

	enrollment := entities.Enrollment{
		EnrollmentID:        enrollmentID,
		ProgramID:           programID,
		UserID:              userID,
		CreatorID:           program.CreatorID,
		AccessType:          accessType,
		AmountPaid:          0,
		SponsorContribution: contribution,
		SupportRuleID:       ruleID,
		CreatedAt:           now,
	}

	updated, err := s.createEnrollmentWithRetry(ctx, enrollment)
	if err != nil {
		s.releaseReservation(ctx, allocationID)
		return EnrollResult{}, err
	}
	s.captureReservation(ctx, allocationID)

	s.emitEnrollmentCreated(ctx, enrollment, program, now)
	s.sendEnrollmentNotifications(ctx, enrollment, program)
	s.evaluateNudges(ctx, program.CreatorID)

	ResolveLogger(s.Logger).Info("enrollment created",
		"event", "enrollment_created",
		"module", "marketplace-core/enrollment-service",
		"layer", "application",
		"program_id", programID,
		"user_id", userID,
		"access_type", string(accessType),
	)
	return EnrollResult{Enrollment: enrollment, Program: updated}, nil
}

// StartCheckout opens a hosted payment session for a paid program. No
// enrollment row is created here; an abandoned checkout expires and the
// expiry sweep returns any sponsorship quota it reserved.
func (s Service) StartCheckout(
	ctx context.Context,
	programID string,
	userID string,
	successURL string,
	cancelURL string,
) (CheckoutResult, error) {
	programID = strings.TrimSpace(programID)
	userID = strings.TrimSpace(userID)
	if programID == "" || userID == "" {
		return CheckoutResult{}, domainerrors.ErrInvalidInput
	}

	program, err := s.Programs.GetProgram(ctx, programID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if program.IsFree() {
		return CheckoutResult{}, domainerrors.ErrInvalidInput
	}
	if allowed, reason := program.CanEnroll(); !allowed {
		if reason == entities.ReasonFull {
			return CheckoutResult{}, domainerrors.ErrProgramFull
		}
		return CheckoutResult{}, domainerrors.ErrProgramNotPublished
	}

	// Idempotency guard against double purchase.
	if _, err := s.Enrollments.GetEnrollment(ctx, programID, userID); err == nil {
		return CheckoutResult{}, domainerrors.ErrAlreadyEnrolled
	} else if !isNotFound(err) {
		return CheckoutResult{}, err
	}

	amount := program.PriceHUF
	var contribution int64
	var ruleID string
	if quote, ok := s.quoteSponsorship(ctx, program); ok && quote.MemberOwes > 0 {
		if _, err := s.Sponsorship.Reserve(ctx, quote.RuleID, programID, userID, quote.SponsorContribution, quote.Currency); err == nil {
			amount = quote.MemberOwes
			contribution = quote.SponsorContribution
			ruleID = quote.RuleID
		}
	}

	now := s.now()
	checkoutID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return CheckoutResult{}, err
	}

	checkout := entities.Checkout{
		CheckoutID:          checkoutID,
		ProgramID:           programID,
		UserID:              userID,
		CreatorID:           program.CreatorID,
		Amount:              amount,
		ListPrice:           program.PriceHUF,
		SponsorContribution: contribution,
		SupportRuleID:       ruleID,
		Currency:            entities.NormalizeCurrency(program.Currency),
		Status:              entities.CheckoutStatusPending,
		CreatedAt:           now,
		ExpiresAt:           now.Add(s.checkoutTTL()),
	}
	if err := s.Checkouts.CreateCheckout(ctx, checkout); err != nil {
		return CheckoutResult{}, err
	}

	session, err := s.Payments.CreateCheckout(ctx, ports.CreateCheckoutInput{
		Reference:  checkoutID,
		Amount:     amount,
		Currency:   checkout.Currency,
		SuccessURL: strings.TrimSpace(successURL),
		CancelURL:  strings.TrimSpace(cancelURL),
		Metadata: map[string]string{
			"checkout_id": checkoutID,
			"program_id":  programID,
			"user_id":     userID,
			"creator_id":  program.CreatorID,
		},
	})
	if err != nil {
		return CheckoutResult{}, domainerrors.ErrPaymentUnavailable
	}

	ResolveLogger(s.Logger).Info("checkout started",
		"event", "checkout_started",
		"module", "marketplace-core/enrollment-service",
		"layer", "application",
		"checkout_id", checkoutID,
		"program_id", programID,
		"user_id", userID,
		"amount", amount,
	)
	return CheckoutResult{
		CheckoutID:  checkoutID,
		RedirectURL: session.RedirectURL,
		Amount:      amount,
		Currency:    checkout.Currency,
	}, nil
}

// FinalizeCheckout is invoked by the payment processor's asynchronous
// confirmation callback. Delivery is at-least-once, so the operation is an
// upsert by the (program, user) natural key: an existing enrollment is
// returned unchanged and the sponsorship quota is debited exactly once.
func (s Service) FinalizeCheckout(ctx context.Context, reference string, amount int64) (FinalizeResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return FinalizeResult{}, domainerrors.ErrInvalidInput
	}

	checkout, err := s.Checkouts.GetCheckoutByReference(ctx, reference)
	if err != nil {
		return FinalizeResult{}, err
	}

	if existing, err := s.Enrollments.GetEnrollment(ctx, checkout.ProgramID, checkout.UserID); err == nil {
		return FinalizeResult{Enrollment: existing, Replayed: true}, nil
	} else if !isNotFound(err) {
		return FinalizeResult{}, err
	}

	now := s.now()
	if s.EventDedup != nil {
		payloadHash := hashPayload(map[string]any{
			"reference": reference,
			"amount":    amount,
		})
		if _, err := s.EventDedup.ReserveEvent(ctx, "checkout:"+reference, payloadHash, now.Add(s.dedupTTL())); err != nil {
			return FinalizeResult{}, err
		}
	}

	if amount <= 0 {
		amount = checkout.Amount
	}
	creatorRevenue, platformFee := entities.SplitRevenue(amount)

	enrollmentID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return FinalizeResult{}, err
	}
	accessType := entities.AccessTypePaid
	if checkout.SupportRuleID != "" {
		accessType = entities.AccessTypeSponsored
	}
	enrollment := entities.Enrollment{
		EnrollmentID:        enrollmentID,
		ProgramID:           checkout.ProgramID,
		UserID:              checkout.UserID,
		CreatorID:           checkout.CreatorID,
		AccessType:          accessType,
		AmountPaid:          amount,
		SponsorContribution: checkout.SponsorContribution,
		CreatorRevenue:      creatorRevenue,
		PlatformFee:         platformFee,
		SupportRuleID:       checkout.SupportRuleID,
		PaymentReference:    reference,
		CreatedAt:           now,
	}

	if _, err := s.createEnrollmentWithRetry(ctx, enrollment); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyEnrolled) {
			// A concurrent retry of the same confirmation won the insert.
			existing, getErr := s.Enrollments.GetEnrollment(ctx, checkout.ProgramID, checkout.UserID)
			if getErr != nil {
				return FinalizeResult{}, getErr
			}
			return FinalizeResult{Enrollment: existing, Replayed: true}, nil
		}
		return FinalizeResult{}, err
	}

	if err := s.Checkouts.MarkCheckoutCompleted(ctx, checkout.CheckoutID, now); err != nil {
		ResolveLogger(s.Logger).Warn("checkout completion mark failed",
			"event", "checkout_mark_completed_failed",
			"module", "marketplace-core/enrollment-service",
			"layer", "application",
			"checkout_id", checkout.CheckoutID,
			"error", err.Error(),
		)
	}

	if checkout.SupportRuleID != "" && s.Sponsorship != nil {
		if reservation, err := s.Sponsorship.Reserve(ctx, checkout.SupportRuleID, checkout.ProgramID, checkout.UserID, checkout.SponsorContribution, checkout.Currency); err == nil {
			s.captureReservation(ctx, reservation.AllocationID)
		}
	}

	program, err := s.Programs.GetProgram(ctx, checkout.ProgramID)
	if err != nil {
		program = entities.Program{ProgramID: checkout.ProgramID, CreatorID: checkout.CreatorID}
	}
	s.emitEnrollmentCreated(ctx, enrollment, program, now)
	s.emitRevenueSplit(ctx, enrollment, now)
	s.sendEnrollmentNotifications(ctx, enrollment, program)
	s.evaluateNudges(ctx, checkout.CreatorID)

	ResolveLogger(s.Logger).Info("checkout finalized",
		"event", "checkout_finalized",
		"module", "marketplace-core/enrollment-service",
		"layer", "application",
		"checkout_id", checkout.CheckoutID,
		"program_id", checkout.ProgramID,
		"user_id", checkout.UserID,
		"amount_paid", amount,
		"creator_revenue", creatorRevenue,
		"platform_fee", platformFee,
	)
	return FinalizeResult{Enrollment: enrollment}, nil
}

func (s Service) ListEnrollments(ctx context.Context, userID string, limit int, offset int) ([]entities.Enrollment, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Enrollments.ListEnrollmentsByUser(ctx, userID, limit, offset)
}

func (s Service) quoteSponsorship(ctx context.Context, program entities.Program) (ports.SponsorshipQuote, bool) {
	if s.Sponsorship == nil {
		return ports.SponsorshipQuote{}, false
	}
	quote, ok, err := s.Sponsorship.Quote(ctx, ports.SponsorshipQuoteRequest{
		ProgramID: program.ProgramID,
		Category:  program.Category,
		CreatorID: program.CreatorID,
		ListPrice: program.PriceHUF,
		Currency:  entities.NormalizeCurrency(program.Currency),
	})
	if err != nil {
		ResolveLogger(s.Logger).Warn("sponsorship quote failed",
			"event", "sponsorship_quote_failed",
			"module", "marketplace-core/enrollment-service",
			"layer", "application",
			"program_id", program.ProgramID,
			"error", err.Error(),
		)
		return ports.SponsorshipQuote{}, false
	}
	return quote, ok
}

// createEnrollmentWithRetry retries exactly once on a transient write
// conflict. Counter updates are commutative and safe to retry; the record
// insert itself is guarded by the unique key.
func (s Service) createEnrollmentWithRetry(ctx context.Context, enrollment entities.Enrollment) (entities.Program, error) {
	program, err := s.Enrollments.CreateEnrollment(ctx, enrollment)
	if errors.Is(err, domainerrors.ErrWriteConflict) {
		select {
		case <-ctx.Done():
			return entities.Program{}, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
		program, err = s.Enrollments.CreateEnrollment(ctx, enrollment)
	}
	return program, err
}

func (s Service) releaseReservation(ctx context.Context, allocationID string) {
	if allocationID == "" || s.Sponsorship == nil {
		return
	}
	if err := s.Sponsorship.Release(ctx, allocationID); err != nil {
		ResolveLogger(s.Logger).Warn("sponsorship release failed",
			"event", "sponsorship_release_failed",
			"module", "marketplace-core/enrollment-service",
			"layer", "application",
			"allocation_id", allocationID,
			"error", err.Error(),
		)
	}
}

func (s Service) captureReservation(ctx context.Context, allocationID string) {
	if allocationID == "" || s.Sponsorship == nil {
		return
	}
	if err := s.Sponsorship.Capture(ctx, allocationID); err != nil {
		ResolveLogger(s.Logger).Warn("sponsorship capture failed",
			"event", "sponsorship_capture_failed",
			"module", "marketplace-core/enrollment-service",
			"layer", "application",
			"allocation_id", allocationID,
			"error", err.Error(),
		)
	}
}

func (s Service) emitEnrollmentCreated(ctx context.Context, enrollment entities.Enrollment, program entities.Program, now time.Time) {
	if s.Outbox == nil {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	envelope, err := newEnrollmentEnvelope(eventID, "enrollment.created", enrollment.ProgramID, now, map[string]any{
		"enrollment_id":        enrollment.EnrollmentID,
		"program_id":           enrollment.ProgramID,
		"user_id":              enrollment.UserID,
		"creator_id":           enrollment.CreatorID,
		"access_type":          string(enrollment.AccessType),
		"amount_paid":          enrollment.AmountPaid,
		"sponsor_contribution": enrollment.SponsorContribution,
		"program_title":        program.Title,
	})
	if err != nil {
		return
	}
	if err := s.Outbox.AppendOutbox(ctx, envelope); err != nil {
		ResolveLogger(s.Logger).Warn("enrollment outbox append failed",
			"event", "enrollment_outbox_append_failed",
			"module", "marketplace-core/enrollment-service",
			"layer", "application",
			"enrollment_id", enrollment.EnrollmentID,
			"error", err.Error(),
		)
	}
}

func (s Service) emitRevenueSplit(ctx context.Context, enrollment entities.Enrollment, now time.Time) {
	if s.Outbox == nil || enrollment.AmountPaid <= 0 {
		return
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	envelope, err := newEnrollmentEnvelope(eventID, "revenue.split", enrollment.ProgramID, now, map[string]any{
		"enrollment_id":   enrollment.EnrollmentID,
		"program_id":      enrollment.ProgramID,
		"creator_id":      enrollment.CreatorID,
		"amount":          enrollment.AmountPaid,
		"creator_revenue": enrollment.CreatorRevenue,
		"platform_fee":    enrollment.PlatformFee,
	})
	if err != nil {
		return
	}
	_ = s.Outbox.AppendOutbox(ctx, envelope)
}

func (s Service) sendEnrollmentNotifications(ctx context.Context, enrollment entities.Enrollment, program entities.Program) {
	if s.Notifier == nil {
		return
	}
	title := program.Title
	if title == "" {
		title = "Program"
	}
	creatorNote := ports.Notification{
		UserID:  enrollment.CreatorID,
		Type:    "enrollment_received",
		Title:   "New participant",
		Message: "Someone joined " + title,
		Data: map[string]any{
			"program_id":  enrollment.ProgramID,
			"user_id":     enrollment.UserID,
			"access_type": string(enrollment.AccessType),
			"amount_paid": enrollment.AmountPaid,
		},
	}
	memberNote := ports.Notification{
		UserID:  enrollment.UserID,
		Type:    "enrollment_confirmed",
		Title:   "You're in",
		Message: "Your spot in " + title + " is confirmed",
		Data: map[string]any{
			"program_id": enrollment.ProgramID,
		},
	}
	for _, note := range []ports.Notification{creatorNote, memberNote} {
		if note.UserID == "" {
			continue
		}
		if err := s.Notifier.Notify(ctx, note); err != nil {
			ResolveLogger(s.Logger).Warn("enrollment notification failed",
				"event", "enrollment_notification_failed",
				"module", "marketplace-core/enrollment-service",
				"layer", "application",
				"notification_type", note.Type,
				"error", err.Error(),
			)
		}
	}
}

func (s Service) evaluateNudges(ctx context.Context, creatorID string) {
	if s.Nudges == nil || strings.TrimSpace(creatorID) == "" {
		return
	}
	s.Nudges.Evaluate(ctx, creatorID)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) checkoutTTL() time.Duration {
	if s.CheckoutTTL <= 0 {
		return 24 * time.Hour
	}
	return s.CheckoutTTL
}

func (s Service) dedupTTL() time.Duration {
	if s.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.DedupTTL
}

func isNotFound(err error) bool {
	return errors.Is(err, domainerrors.ErrProgramNotFound) ||
		errors.Is(err, domainerrors.ErrCheckoutNotFound) ||
		errors.Is(err, domainerrors.ErrEnrollmentNotFound)
}

func hashPayload(payload map[string]any) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
