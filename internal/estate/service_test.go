package estate

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate/server/internal/database"
	"estate/server/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.PropertyEvent
}

func (r *recordingPublisher) Publish(_ context.Context, event models.PropertyEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []models.EventType
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func newTestService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	dir := t.TempDir()
	db, err := database.NewDatabase("sqlite", filepath.Join(dir, "estate.db"), logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	publisher := &recordingPublisher{}
	return NewService(db, publisher, filepath.Join(dir, "uploads"), logger), publisher
}

func ptr[T any](v T) *T {
	return &v
}

func mustCreateProperty(t *testing.T, s *Service, name string, price float64) *models.Property {
	t.Helper()
	p, err := s.CreateProperty(context.Background(), PropertyInput{
		Name:          ptr(name),
		ExpectedPrice: ptr(price),
		LivingArea:    ptr(120),
		City:          ptr("Brussels"),
	})
	require.NoError(t, err)
	return p
}

func mustCreatePartner(t *testing.T, s *Service, name string) *models.Partner {
	t.Helper()
	p, err := s.CreatePartner(context.Background(), PartnerInput{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return p
}

func mustCreateOffer(t *testing.T, s *Service, propertyID, partnerID int64, price float64) *models.PropertyOffer {
	t.Helper()
	o, err := s.CreateOffer(context.Background(), OfferInput{PropertyID: propertyID, PartnerID: partnerID, Price: price})
	require.NoError(t, err)
	return o
}

func assertKind(t *testing.T, err error, kind Kind, message string) {
	t.Helper()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, kind, e.Kind)
	if message != "" {
		assert.Equal(t, message, e.Message)
	}
}

func TestApplyGardenRule(t *testing.T) {
	tests := []struct {
		name            string
		in              models.Property
		wantArea        int
		wantOrientation models.GardenOrientation
	}{
		{"garden without area", models.Property{Garden: true}, 10, models.OrientationNorth},
		{"garden keeps values", models.Property{Garden: true, GardenArea: 40, GardenOrientation: models.OrientationSouth}, 40, models.OrientationSouth},
		{"no garden clears values", models.Property{GardenArea: 40, GardenOrientation: models.OrientationEast}, 0, models.OrientationNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			applyGardenRule(&p)
			assert.Equal(t, tt.wantArea, p.GardenArea)
			assert.Equal(t, tt.wantOrientation, p.GardenOrientation)
		})
	}
}

func TestCheckSellingPrice(t *testing.T) {
	tests := []struct {
		name     string
		expected float64
		selling  float64
		wantErr  bool
	}{
		{"unset selling price", 100000, 0, false},
		{"exactly ninety percent", 100000, 90000, false},
		{"above", 100000, 95000, false},
		{"below", 100000, 89999.99, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSellingPrice(&models.Property{ExpectedPrice: tt.expected, SellingPrice: tt.selling})
			if tt.wantErr {
				assertKind(t, err, KindValidation, "")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateProperty_Defaults(t *testing.T) {
	s, publisher := newTestService(t)
	s.now = func() time.Time { return time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC) }

	p, err := s.CreateProperty(context.Background(), PropertyInput{
		Name:          ptr("  Villa  "),
		ExpectedPrice: ptr(250000.0),
		LivingArea:    ptr(150),
		Garden:        ptr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, "Villa", p.Name)
	assert.Equal(t, models.StateNew, p.State)
	assert.True(t, p.Active)
	assert.Equal(t, models.DefaultBedrooms, p.Bedrooms)
	assert.Equal(t, 10, p.GardenArea)
	assert.Equal(t, models.OrientationNorth, p.GardenOrientation)
	assert.Equal(t, 160, p.TotalArea)
	assert.Zero(t, p.BestOffer)
	assert.Equal(t, "2025-04-10", time.Time(p.DateAvailability).Format("2006-01-02"))
	assert.Equal(t, []models.EventType{models.EventPropertyCreated}, publisher.types())
}

func TestCreateProperty_ExplicitZeroBedrooms(t *testing.T) {
	s, _ := newTestService(t)

	p, err := s.CreateProperty(context.Background(), PropertyInput{
		Name:          ptr("Studio"),
		ExpectedPrice: ptr(90000.0),
		Bedrooms:      ptr(0),
	})
	require.NoError(t, err)

	got, err := s.GetProperty(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Bedrooms)
}

func TestCreateProperty_Validation(t *testing.T) {
	s, _ := newTestService(t)

	tests := []struct {
		name string
		in   PropertyInput
	}{
		{"missing name", PropertyInput{ExpectedPrice: ptr(1000.0)}},
		{"blank name", PropertyInput{Name: ptr(" "), ExpectedPrice: ptr(1000.0)}},
		{"missing price", PropertyInput{Name: ptr("A")}},
		{"zero price", PropertyInput{Name: ptr("A"), ExpectedPrice: ptr(0.0)}},
		{"negative area", PropertyInput{Name: ptr("A"), ExpectedPrice: ptr(1000.0), LivingArea: ptr(-1)}},
		{"bad orientation", PropertyInput{Name: ptr("A"), ExpectedPrice: ptr(1000.0), Garden: ptr(true), GardenOrientation: ptr(models.GardenOrientation("up"))}},
		{"bad date", PropertyInput{Name: ptr("A"), ExpectedPrice: ptr(1000.0), DateAvailability: ptr("tomorrow")}},
		{"half coordinates", PropertyInput{Name: ptr("A"), ExpectedPrice: ptr(1000.0), Latitude: ptr(50.0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateProperty(context.Background(), tt.in)
			assertKind(t, err, KindValidation, "")
		})
	}
}

func TestCreateProperty_UnknownReferences(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.CreateProperty(context.Background(), PropertyInput{Name: ptr("A"), ExpectedPrice: ptr(1000.0), PropertyTypeID: ptr(int64(77))})
	assertKind(t, err, KindNotFound, "Property type not found")

	_, err = s.CreateProperty(context.Background(), PropertyInput{Name: ptr("A"), ExpectedPrice: ptr(1000.0), TagIDs: &[]int64{5}})
	assertKind(t, err, KindNotFound, "Tag not found")

	list, total, err := s.ListProperties(context.Background(), models.PropertyFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestUpdateProperty_TracksChanges(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)

	updated, err := s.UpdateProperty(ctx, p.ID, PropertyInput{
		Name:       ptr("Big villa"),
		City:       ptr("Ghent"),
		Garden:     ptr(true),
		GardenArea: ptr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, 150, updated.TotalArea)

	messages, err := s.ListPropertyMessages(ctx, p.ID)
	require.NoError(t, err)
	fields := map[string]models.PropertyMessage{}
	for _, m := range messages {
		fields[m.Field] = m
	}
	require.Len(t, fields, 2)
	assert.Equal(t, "Villa", fields["name"].OldValue)
	assert.Equal(t, "Big villa", fields["name"].NewValue)
	assert.Equal(t, "Ghent", fields["city"].NewValue)
}

func TestUpdateProperty_SellingPriceConstraint(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	partner := mustCreatePartner(t, s, "alice")
	offer := mustCreateOffer(t, s, p.ID, partner.ID, 190000)
	_, err := s.AcceptOffer(ctx, offer.ID)
	require.NoError(t, err)

	_, err = s.UpdateProperty(ctx, p.ID, PropertyInput{ExpectedPrice: ptr(300000.0)})
	assertKind(t, err, KindValidation, "")

	got, err := s.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 200000.0, got.ExpectedPrice)
}

func TestSetActive(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)

	archived, err := s.SetActive(ctx, p.ID, false)
	require.NoError(t, err)
	assert.False(t, archived.Active)

	list, _, err := s.ListProperties(ctx, models.PropertyFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	restored, err := s.SetActive(ctx, p.ID, true)
	require.NoError(t, err)
	assert.True(t, restored.Active)
}

func TestCreateOffer(t *testing.T) {
	s, publisher := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	partner := mustCreatePartner(t, s, "alice")

	first := mustCreateOffer(t, s, p.ID, partner.ID, 150000)
	assert.Equal(t, models.OfferPending, first.Status)
	assert.Equal(t, models.DefaultOfferValidity, first.Validity)
	assert.True(t, time.Time(models.Deadline(first.CreateDate, 7)).Equal(time.Time(first.DateDeadline)))
	require.NotNil(t, first.Partner)
	assert.Equal(t, "alice", first.Partner.Name)

	got, err := s.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateOfferReceived, got.State)
	assert.Equal(t, 150000.0, got.BestOffer)

	_, err = s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: partner.ID, Price: 150000})
	assertKind(t, err, KindValidation, "The offer must be higher than 150000.00")

	_, err = s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: partner.ID, Price: 140000})
	assertKind(t, err, KindValidation, "The offer must be higher than 150000.00")

	second := mustCreateOffer(t, s, p.ID, partner.ID, 160000)
	got, err = s.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Price, got.BestOffer)
	assert.Equal(t, models.StateOfferReceived, got.State)

	assert.Equal(t, []models.EventType{
		models.EventPropertyCreated, models.EventOfferReceived, models.EventOfferReceived,
	}, publisher.types())
}

func TestCreateOffer_Guards(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	partner := mustCreatePartner(t, s, "alice")

	_, err := s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: partner.ID, Price: 0})
	assertKind(t, err, KindValidation, "")

	_, err = s.CreateOffer(ctx, OfferInput{PropertyID: 999, PartnerID: partner.ID, Price: 10})
	assertKind(t, err, KindNotFound, "Property not found")

	_, err = s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: 999, Price: 10})
	assertKind(t, err, KindNotFound, "Partner not found")

	_, err = s.CancelProperty(ctx, p.ID)
	require.NoError(t, err)
	_, err = s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: partner.ID, Price: 10})
	assertKind(t, err, KindValidation, "You cannot make an offer on a sold or canceled property.")
}

func TestCreateOffer_MustBeStrictlyHigher(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	partner := mustCreatePartner(t, s, "alice")
	mustCreateOffer(t, s, p.ID, partner.ID, 95000)

	tests := []struct {
		name    string
		price   float64
		wantErr bool
	}{
		{"lower", 94999.99, true},
		{"equal", 95000, true},
		{"sub cent higher", 95000.004, false},
		{"higher", 96000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: partner.ID, Price: tt.price})
			if tt.wantErr {
				assertKind(t, err, KindValidation, "")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreateOffer_DeadlineInput(t *testing.T) {
	s, _ := newTestService(t)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	partner := mustCreatePartner(t, s, "alice")

	o, err := s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: partner.ID, Price: 100, DateDeadline: ptr("2025-03-15")})
	require.NoError(t, err)
	assert.Equal(t, 14, o.Validity)

	_, err = s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: partner.ID, Price: 200, DateDeadline: ptr("2025-02-01")})
	assertKind(t, err, KindValidation, "The deadline cannot be before the offer date")
}

func TestUpdateOfferDeadline(t *testing.T) {
	s, _ := newTestService(t)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	partner := mustCreatePartner(t, s, "alice")
	o := mustCreateOffer(t, s, p.ID, partner.ID, 100)

	updated, err := s.UpdateOfferDeadline(ctx, o.ID, DeadlineInput{Validity: ptr(30)})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-31", time.Time(updated.DateDeadline).Format("2006-01-02"))

	updated, err = s.UpdateOfferDeadline(ctx, o.ID, DeadlineInput{DateDeadline: ptr("2025-03-04")})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Validity)

	_, err = s.UpdateOfferDeadline(ctx, o.ID, DeadlineInput{})
	assertKind(t, err, KindValidation, "")

	_, err = s.UpdateOfferDeadline(ctx, o.ID, DeadlineInput{Validity: ptr(1), DateDeadline: ptr("2025-03-04")})
	assertKind(t, err, KindValidation, "")
}

func TestAcceptOffer(t *testing.T) {
	s, publisher := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	alice := mustCreatePartner(t, s, "alice")
	bob := mustCreatePartner(t, s, "bob")

	first := mustCreateOffer(t, s, p.ID, alice.ID, 185000)
	second := mustCreateOffer(t, s, p.ID, bob.ID, 190000)
	third := mustCreateOffer(t, s, p.ID, alice.ID, 195000)

	accepted, err := s.AcceptOffer(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, accepted.Status)

	got, err := s.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateOfferAccepted, got.State)
	assert.Equal(t, 190000.0, got.SellingPrice)
	require.NotNil(t, got.BuyerID)
	assert.Equal(t, bob.ID, *got.BuyerID)

	statuses := map[int64]models.OfferStatus{}
	for _, o := range got.Offers {
		statuses[o.ID] = o.Status
	}
	assert.Equal(t, map[int64]models.OfferStatus{
		first.ID:  models.OfferRefused,
		second.ID: models.OfferAccepted,
		third.ID:  models.OfferRefused,
	}, statuses)

	_, err = s.AcceptOffer(ctx, third.ID)
	assertKind(t, err, KindValidation, "Only pending offers can be accepted.")

	messages, err := s.ListPropertyMessages(ctx, p.ID)
	require.NoError(t, err)
	var tracked []string
	for _, m := range messages {
		tracked = append(tracked, m.Field)
	}
	assert.Contains(t, tracked, "buyer_id")
	assert.Contains(t, tracked, "selling_price")

	events := publisher.types()
	assert.Equal(t, models.EventOfferAccepted, events[len(events)-1])
}

func TestAcceptOffer_BelowNinetyPercentLeavesRecordsUnchanged(t *testing.T) {
	s, publisher := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	alice := mustCreatePartner(t, s, "alice")
	low := mustCreateOffer(t, s, p.ID, alice.ID, 150000)
	other := mustCreateOffer(t, s, p.ID, alice.ID, 160000)
	eventsBefore := len(publisher.types())

	_, err := s.AcceptOffer(ctx, low.ID)
	assertKind(t, err, KindValidation, "")

	got, err := s.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateOfferReceived, got.State)
	assert.Zero(t, got.SellingPrice)
	assert.Nil(t, got.BuyerID)
	for _, o := range got.Offers {
		assert.Equal(t, models.OfferPending, o.Status, "offer %d", o.ID)
	}
	assert.Len(t, publisher.types(), eventsBefore)

	_, err = s.GetOffer(ctx, other.ID)
	require.NoError(t, err)
}

func TestAcceptOffer_Guards(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.AcceptOffer(ctx, 42)
	assertKind(t, err, KindNotFound, "Offer not found")

	p := mustCreateProperty(t, s, "Villa", 200000)
	alice := mustCreatePartner(t, s, "alice")
	o := mustCreateOffer(t, s, p.ID, alice.ID, 195000)
	_, err = s.CancelProperty(ctx, p.ID)
	require.NoError(t, err)

	_, err = s.AcceptOffer(ctx, o.ID)
	assertKind(t, err, KindValidation, "You cannot accept an offer on a sold or canceled property.")
}

func TestAcceptOffer_SecondAcceptanceConflicts(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	p := mustCreateProperty(t, s, "Loft", 100000)
	alice := mustCreatePartner(t, s, "alice")
	bob := mustCreatePartner(t, s, "bob")
	first := mustCreateOffer(t, s, p.ID, alice.ID, 95000)
	_, err := s.AcceptOffer(ctx, first.ID)
	require.NoError(t, err)

	// offers stay open on an offer_accepted property
	second := mustCreateOffer(t, s, p.ID, bob.ID, 99000)
	_, err = s.AcceptOffer(ctx, second.ID)
	assertKind(t, err, KindConflict, "An offer has already been accepted for this property.")

	got, err := s.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateOfferAccepted, got.State)
	require.NotNil(t, got.BuyerID)
	assert.Equal(t, alice.ID, *got.BuyerID)
	assert.Equal(t, 95000.0, got.SellingPrice)

	o, err := s.GetOffer(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferPending, o.Status)
}

func TestRefuseOffer(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	alice := mustCreatePartner(t, s, "alice")
	first := mustCreateOffer(t, s, p.ID, alice.ID, 185000)
	second := mustCreateOffer(t, s, p.ID, alice.ID, 195000)

	refused, err := s.RefuseOffer(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferRefused, refused.Status)

	_, err = s.RefuseOffer(ctx, first.ID)
	assertKind(t, err, KindValidation, "The offer is already refused.")

	_, err = s.AcceptOffer(ctx, second.ID)
	require.NoError(t, err)
	_, err = s.RefuseOffer(ctx, second.ID)
	assertKind(t, err, KindValidation, "Accepted offers cannot be refused.")
}

func TestStateActions(t *testing.T) {
	ctx := context.Background()

	t.Run("sell without buyer", func(t *testing.T) {
		s, _ := newTestService(t)
		p := mustCreateProperty(t, s, "Villa", 200000)
		_, err := s.SellProperty(ctx, p.ID)
		assertKind(t, err, KindValidation, "You cannot sell a property without a buyer.")
	})

	t.Run("sell after acceptance then cancel", func(t *testing.T) {
		s, publisher := newTestService(t)
		p := mustCreateProperty(t, s, "Villa", 200000)
		alice := mustCreatePartner(t, s, "alice")
		o := mustCreateOffer(t, s, p.ID, alice.ID, 195000)
		_, err := s.AcceptOffer(ctx, o.ID)
		require.NoError(t, err)

		sold, err := s.SellProperty(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateSold, sold.State)

		_, err = s.CancelProperty(ctx, p.ID)
		assertKind(t, err, KindValidation, "Sold properties cannot be canceled.")
		_, err = s.MarkPropertyRented(ctx, p.ID)
		assertKind(t, err, KindValidation, "Properties that are sold or canceled cannot be rented.")
		err = s.DeleteProperty(ctx, p.ID)
		assertKind(t, err, KindValidation, "You cannot delete a property that is sold or has an accepted offer.")

		events := publisher.types()
		assert.Equal(t, models.EventPropertySold, events[len(events)-1])
	})

	t.Run("cancel then sell", func(t *testing.T) {
		s, _ := newTestService(t)
		p := mustCreateProperty(t, s, "Villa", 200000)
		canceled, err := s.CancelProperty(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateCanceled, canceled.State)

		_, err = s.SellProperty(ctx, p.ID)
		assertKind(t, err, KindValidation, "Canceled properties cannot be sold.")
		_, err = s.MarkPropertyRented(ctx, p.ID)
		assertKind(t, err, KindValidation, "Properties that are sold or canceled cannot be rented.")
	})

	t.Run("rent", func(t *testing.T) {
		s, _ := newTestService(t)
		p := mustCreateProperty(t, s, "Villa", 200000)
		rented, err := s.MarkPropertyRented(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateRented, rented.State)
	})

	t.Run("missing property", func(t *testing.T) {
		s, _ := newTestService(t)
		_, err := s.SellProperty(ctx, 5)
		assertKind(t, err, KindNotFound, "Property not found")
	})
}

func TestDeleteProperty(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreateProperty(t, s, "Villa", 200000)
	alice := mustCreatePartner(t, s, "alice")
	o := mustCreateOffer(t, s, p.ID, alice.ID, 195000)

	_, err := s.AcceptOffer(ctx, o.ID)
	require.NoError(t, err)
	err = s.DeleteProperty(ctx, p.ID)
	assertKind(t, err, KindValidation, "You cannot delete a property that is sold or has an accepted offer.")

	other := mustCreateProperty(t, s, "Flat", 100000)
	mustCreateOffer(t, s, other.ID, alice.ID, 95000)
	require.NoError(t, s.DeleteProperty(ctx, other.ID))

	_, err = s.GetProperty(ctx, other.ID)
	assertKind(t, err, KindNotFound, "Property not found")
	_, err = s.GetPartner(ctx, alice.ID)
	assert.NoError(t, err)
}

func TestExpireOffers(t *testing.T) {
	s, publisher := newTestService(t)
	ctx := context.Background()
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	p := mustCreateProperty(t, s, "Villa", 200000)
	alice := mustCreatePartner(t, s, "alice")
	short, err := s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: alice.ID, Price: 181000, Validity: ptr(1)})
	require.NoError(t, err)
	long, err := s.CreateOffer(ctx, OfferInput{PropertyID: p.ID, PartnerID: alice.ID, Price: 182000, Validity: ptr(30)})
	require.NoError(t, err)

	accepted := mustCreateProperty(t, s, "Flat", 100000)
	kept, err := s.CreateOffer(ctx, OfferInput{PropertyID: accepted.ID, PartnerID: alice.ID, Price: 95000, Validity: ptr(1)})
	require.NoError(t, err)
	_, err = s.AcceptOffer(ctx, kept.ID)
	require.NoError(t, err)

	// The deadline day itself is still valid
	s.now = func() time.Time { return start.AddDate(0, 0, 1) }
	count, err := s.ExpireOffers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	s.now = func() time.Time { return start.AddDate(0, 0, 2) }
	count, err = s.ExpireOffers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.GetOffer(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferRefused, got.Status)
	got, err = s.GetOffer(ctx, long.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferPending, got.Status)
	got, err = s.GetOffer(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, got.Status)

	events := publisher.types()
	assert.Equal(t, models.EventOfferExpired, events[len(events)-1])
}

func TestCatalog(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	house, err := s.CreatePropertyType(ctx, PropertyTypeInput{Name: ptr("House")})
	require.NoError(t, err)
	assert.Equal(t, 10, house.Sequence)

	_, err = s.CreatePropertyType(ctx, PropertyTypeInput{Name: ptr("House")})
	assertKind(t, err, KindConflict, "Property type name already exists!")

	flat, err := s.CreatePropertyType(ctx, PropertyTypeInput{Name: ptr("Apartment"), Sequence: ptr(0)})
	require.NoError(t, err)
	assert.Zero(t, flat.Sequence)

	_, err = s.UpdatePropertyType(ctx, flat.ID, PropertyTypeInput{Name: ptr("House")})
	assertKind(t, err, KindConflict, "Property type name already exists!")

	_, err = s.CreateProperty(ctx, PropertyInput{Name: ptr("Villa"), ExpectedPrice: ptr(1000.0), PropertyTypeID: &house.ID})
	require.NoError(t, err)

	got, err := s.GetPropertyType(ctx, house.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PropertyCount)

	properties, total, err := s.ListTypeProperties(ctx, house.ID, models.PropertyFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Villa", properties[0].Name)

	_, _, err = s.ListTypeProperties(ctx, 999, models.PropertyFilter{})
	assertKind(t, err, KindNotFound, "Property type not found")

	tag, err := s.CreatePropertyTag(ctx, PropertyTagInput{Name: ptr("cozy")})
	require.NoError(t, err)
	_, err = s.CreatePropertyTag(ctx, PropertyTagInput{Name: ptr("cozy")})
	assertKind(t, err, KindConflict, "Tag name already exists!")

	renamed, err := s.UpdatePropertyTag(ctx, tag.ID, PropertyTagInput{Name: ptr("warm"), Color: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, "warm", renamed.Name)

	require.NoError(t, s.DeletePropertyTag(ctx, tag.ID))
	assertKind(t, s.DeletePropertyTag(ctx, tag.ID), KindNotFound, "Tag not found")
	require.NoError(t, s.DeletePropertyType(ctx, house.ID))
}

func TestCreatePartner_Validation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.CreatePartner(ctx, PartnerInput{Name: ""})
	assertKind(t, err, KindValidation, "")

	_, err = s.CreatePartner(ctx, PartnerInput{Name: "Eve", Email: "not-an-email"})
	assertKind(t, err, KindValidation, "")

	p, err := s.CreatePartner(ctx, PartnerInput{Name: "Eve", Email: "Eve <eve@example.com>"})
	require.NoError(t, err)
	assert.Equal(t, "eve@example.com", p.Email)

	partners, err := s.ListPartners(ctx)
	require.NoError(t, err)
	assert.Len(t, partners, 1)
}
