package form

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"busydostawcze/internal/model"
)

type ReviewForm struct {
	AuthorName       string `form:"author_name" validate:"required" msg:"Imię jest wymagane"`
	BusinessType     string `form:"business_type" validate:"required" msg:"Branża jest wymagana"`
	Rating           int    `form:"rating" validate:"min=1,max=5" msg:"Ocena musi być od 1 do 5"`
	Comment          string `form:"comment" validate:"required" msg:"Treść opinii jest wymagana"`
	PurchasedVehicle string `form:"purchased_vehicle"`
	Visible          bool   `form:"visible"`
}

func ParseReview(v url.Values) ReviewForm {
	rating, err := strconv.Atoi(str(v, "rating"))
	if err != nil {
		rating = 0
	}
	return ReviewForm{
		AuthorName:       str(v, "author_name"),
		BusinessType:     str(v, "business_type"),
		Rating:           rating,
		Comment:          strings.TrimSpace(v.Get("comment")),
		PurchasedVehicle: str(v, "purchased_vehicle"),
		Visible:          boolean(v, "visible"),
	}
}

func FromReview(r model.Review) ReviewForm {
	return ReviewForm{
		AuthorName:       r.AuthorName,
		BusinessType:     r.BusinessType,
		Rating:           r.Rating,
		Comment:          r.Comment,
		PurchasedVehicle: r.PurchasedVehicle,
		Visible:          r.Visible,
	}
}

func (f ReviewForm) Validate() Errors { return check(f) }

func (f ReviewForm) Input() model.ReviewInput {
	visible, rating := f.Visible, f.Rating
	return model.ReviewInput{
		Review: model.Review{
			AuthorName:       f.AuthorName,
			BusinessType:     f.BusinessType,
			Comment:          f.Comment,
			PurchasedVehicle: f.PurchasedVehicle,
		},
		Visible: &visible,
		Rating:  &rating,
	}
}

func (f ReviewForm) Patch() model.Patch {
	return model.Patch{
		"author_name":       f.AuthorName,
		"business_type":     f.BusinessType,
		"rating":            f.Rating,
		"comment":           f.Comment,
		"purchased_vehicle": f.PurchasedVehicle,
		"visible":           f.Visible,
	}
}

type ReviewWriter interface {
	CreateReview(ctx context.Context, in model.ReviewInput) (model.Review, error)
	UpdateReview(ctx context.Context, id string, p model.Patch) (model.Review, error)
}

type ReviewResult struct {
	Review model.Review
	Errors Errors
}

// SubmitReview — как SubmitListing, для отзывов.
func SubmitReview(ctx context.Context, w ReviewWriter, id string, f ReviewForm) (ReviewResult, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return ReviewResult{Errors: errs}, ErrInvalid
	}
	var (
		saved model.Review
		err   error
	)
	if id = strings.TrimSpace(id); id != "" {
		saved, err = w.UpdateReview(ctx, id, f.Patch())
	} else {
		saved, err = w.CreateReview(ctx, f.Input())
	}
	if err != nil {
		var fe fieldErrorer
		if errors.As(err, &fe) && len(fe.FieldErrors()) > 0 {
			errs := Errors{}
			errs.Merge(fe.FieldErrors())
			return ReviewResult{Errors: errs}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return ReviewResult{}, err
	}
	return ReviewResult{Review: saved, Errors: Errors{}}, nil
}
