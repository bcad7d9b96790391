package extraction

import (
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/api/googleapi"
)

var _ = Describe("classifyAPIError", func() {
	var (
		input      error
		classified error
	)

	JustBeforeEach(func() {
		classified = classifyAPIError(input)
	})

	When("the API reports HTTP 429", func() {
		BeforeEach(func() {
			input = &googleapi.Error{Code: http.StatusTooManyRequests, Message: "rate limited"}
		})

		It("should classify as quota exhausted", func() {
			Expect(errors.Is(classified, ErrQuotaExhausted)).To(BeTrue())
		})
	})

	When("the API reports HTTP 403", func() {
		BeforeEach(func() {
			input = &googleapi.Error{Code: http.StatusForbidden, Message: "forbidden"}
		})

		It("should classify as invalid credential", func() {
			Expect(errors.Is(classified, ErrInvalidCredential)).To(BeTrue())
		})
	})

	When("the message mentions a missing entity", func() {
		BeforeEach(func() {
			input = errors.New("googleapi: Error 404: Requested entity was not found.")
		})

		It("should classify as invalid credential", func() {
			Expect(errors.Is(classified, ErrInvalidCredential)).To(BeTrue())
		})
	})

	When("the message mentions quota", func() {
		BeforeEach(func() {
			input = errors.New("generativelanguage: quota exceeded for quota metric")
		})

		It("should classify as quota exhausted", func() {
			Expect(errors.Is(classified, ErrQuotaExhausted)).To(BeTrue())
		})
	})

	When("the error is a wrapped API error", func() {
		BeforeEach(func() {
			input = fmt.Errorf("generating content: %w", &googleapi.Error{Code: http.StatusTooManyRequests})
		})

		It("should still classify as quota exhausted", func() {
			Expect(errors.Is(classified, ErrQuotaExhausted)).To(BeTrue())
		})
	})

	When("the error is unrelated", func() {
		BeforeEach(func() {
			input = errors.New("connection reset by peer")
		})

		It("should not map onto a specific kind", func() {
			Expect(errors.Is(classified, ErrQuotaExhausted)).To(BeFalse())
			Expect(errors.Is(classified, ErrInvalidCredential)).To(BeFalse())
			Expect(errors.Is(classified, ErrMissingCredential)).To(BeFalse())
		})

		It("should keep the original cause", func() {
			Expect(errors.Is(classified, input)).To(BeTrue())
		})
	})
})
