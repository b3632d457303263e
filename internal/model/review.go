package model

import "time"

// Review — отзыв клиента. С объявлением связан только текстом purchased_vehicle.
type Review struct {
	ID               ID        `json:"id"`
	AuthorName       string    `json:"author_name"`
	BusinessType     string    `json:"business_type"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	Visible          bool      `json:"visible"`
	PurchasedVehicle string    `json:"purchased_vehicle"`
	CreatedAt        time.Time `json:"created_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// ReviewInput — тело POST; visible по умолчанию true, rating по умолчанию 5.
type ReviewInput struct {
	Review
	Visible *bool `json:"visible"`
	Rating  *int  `json:"rating"`
}

func (in ReviewInput) ToReview() Review {
	r := in.Review
	r.ID = ""
	r.CreatedAt = time.Time{}
	r.Visible = in.Visible == nil || *in.Visible
	r.Rating = MaxRating
	if in.Rating != nil {
		r.Rating = *in.Rating
	}
	return r
}
