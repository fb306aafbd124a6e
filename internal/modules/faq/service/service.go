package service

import (
	"context"

	"fedlearn.dev/dashboard/internal/entity"
	faqRepo "fedlearn.dev/dashboard/internal/modules/faq/repository"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"github.com/microcosm-cc/bluemonday"
)

type FAQService interface {
	List(ctx context.Context, page commonDto.PageQuery) (*commonDto.Paginated[entity.FAQ], error)
}

type faqService struct {
	repo      faqRepo.FAQRepository
	questions *bluemonday.Policy
	answers   *bluemonday.Policy
}

func NewFAQService(repo faqRepo.FAQRepository) FAQService {
	return &faqService{
		repo:      repo,
		questions: bluemonday.StrictPolicy(),
		answers:   bluemonday.UGCPolicy(),
	}
}

// List returns one page of FAQs, sanitised on the way out.
func (s *faqService) List(ctx context.Context, page commonDto.PageQuery) (*commonDto.Paginated[entity.FAQ], error) {
	faqs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range faqs {
		faqs[i].Question = s.questions.Sanitize(faqs[i].Question)
		faqs[i].Answer = s.answers.Sanitize(faqs[i].Answer)
	}

	out := commonDto.Paginate(faqs, page.Page, page.Limit)
	return &out, nil
}
