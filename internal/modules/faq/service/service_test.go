package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"fedlearn.dev/dashboard/internal/entity"
	faqRepo "fedlearn.dev/dashboard/internal/modules/faq/repository"
	"fedlearn.dev/dashboard/internal/testutil"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPaginatesAndSanitises(t *testing.T) {
	p := testutil.NewPlatform(t)
	for i := 1; i <= 12; i++ {
		p.FAQs = append(p.FAQs, entity.FAQ{ID: int64(i), Question: fmt.Sprintf("Q%d", i), Answer: "ok"})
	}
	p.FAQs[0].Question = "<i>Who</i> can upload?"
	p.FAQs[0].Answer = `Researchers<img src=x onerror="alert(1)">`

	svc := NewFAQService(faqRepo.NewFAQRepository(p.Client()))

	first, err := svc.List(context.Background(), commonDto.PageQuery{})
	require.NoError(t, err)
	assert.Len(t, first.Data, 10)
	assert.Equal(t, 2, first.Meta.TotalPages)
	assert.Equal(t, "Who can upload?", first.Data[0].Question)
	assert.NotContains(t, first.Data[0].Answer, "onerror")

	second, err := svc.List(context.Background(), commonDto.PageQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Data, 2)
}

func TestListFallbackMessage(t *testing.T) {
	p := testutil.NewPlatform(t)
	p.Fail("GET /faq/", http.StatusInternalServerError, "", 0)

	_, err := NewFAQService(faqRepo.NewFAQRepository(p.Client())).List(context.Background(), commonDto.PageQuery{})
	assert.EqualError(t, err, "Failed to fetch FAQs")
}
