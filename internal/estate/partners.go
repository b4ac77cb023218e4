package estate

import (
	"context"
	"net/mail"
	"strings"

	"estate/server/internal/database"
	"estate/server/internal/models"
)

type PartnerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (s *Service) CreatePartner(ctx context.Context, in PartnerInput) (*models.Partner, error) {
	name, err := requireName("name", in.Name)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return nil, validationf("Invalid email address %q", email)
		}
		email = addr.Address
	}

	p := &models.Partner{Name: name, Email: email, Phone: strings.TrimSpace(in.Phone)}
	if err := database.CreatePartner(s.db.GetDB().WithContext(ctx), p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPartner(ctx context.Context, id int64) (*models.Partner, error) {
	p, err := database.GetPartner(s.db.GetDB().WithContext(ctx), id)
	if err != nil {
		return nil, notFound(err, "Partner")
	}
	return p, nil
}

func (s *Service) ListPartners(ctx context.Context) ([]models.Partner, error) {
	return database.ListPartners(s.db.GetDB().WithContext(ctx))
}
