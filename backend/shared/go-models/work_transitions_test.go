package models_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/shiftly/mono-repo/backend/shared/go-models"
)

var _ = Describe("Work status machine", func() {
	//             published assigned active paused completed rejected
	// draft         V (publish) -      -      -      -        V (reject)
	// published     -       V (assign) -      -      -        V (reject)
	// assigned  V (release)     -   V (start) -      -        -
	// active        -           -      -  V (pause) V (complete) -
	// paused        -           -  V (resume) -   V (complete) -
	Describe("NextStatus", func() {
		It("should follow the documented edges", func() {
			next, ok := models.NextStatus(models.WorkStatusPublished, models.TransitionAssign)
			Expect(ok).To(BeTrue())
			Expect(next).To(Equal(models.WorkStatusAssigned))

			next, ok = models.NextStatus(models.WorkStatusAssigned, models.TransitionRelease)
			Expect(ok).To(BeTrue())
			Expect(next).To(Equal(models.WorkStatusPublished))

			next, ok = models.NextStatus(models.WorkStatusPaused, models.TransitionComplete)
			Expect(ok).To(BeTrue())
			Expect(next).To(Equal(models.WorkStatusCompleted))
		})

		It("should refuse edges that are not listed", func() {
			_, ok := models.NextStatus(models.WorkStatusAssigned, models.TransitionComplete)
			Expect(ok).To(BeFalse())

			_, ok = models.NextStatus(models.WorkStatusCompleted, models.TransitionStart)
			Expect(ok).To(BeFalse())

			_, ok = models.NextStatus(models.WorkStatusDraft, models.TransitionAssign)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("AvailableTransitions", func() {
		It("should list nothing out of terminal statuses", func() {
			Expect(models.AvailableTransitions(models.WorkStatusCompleted)).To(BeEmpty())
			Expect(models.AvailableTransitions(models.WorkStatusRejected)).To(BeEmpty())
		})

		It("should list pause and complete out of active", func() {
			Expect(models.AvailableTransitions(models.WorkStatusActive)).To(Equal([]models.WorkTransition{
				{Name: models.TransitionPause, From: models.WorkStatusActive, To: models.WorkStatusPaused},
				{Name: models.TransitionComplete, From: models.WorkStatusActive, To: models.WorkStatusCompleted},
			}))
		})
	})

	Describe("status predicates", func() {
		It("should count assigned, active and paused against the active slot", func() {
			for _, st := range models.ActiveWorkStatuses {
				Expect(st.IsActive()).To(BeTrue())
			}
			Expect(models.WorkStatusCompleted.IsActive()).To(BeFalse())
			Expect(models.WorkStatusPublished.IsActive()).To(BeFalse())
		})

		It("should accept completion codes only while active or paused", func() {
			Expect(models.WorkStatusActive.AcceptsCompletionCode()).To(BeTrue())
			Expect(models.WorkStatusPaused.AcceptsCompletionCode()).To(BeTrue())
			Expect(models.WorkStatusAssigned.AcceptsCompletionCode()).To(BeFalse())
		})
	})

	Describe("Clone", func() {
		It("should not share pointers or slices with the original", func() {
			emp := "E1"
			code := "123456"
			w := &models.Work{EmployeeID: &emp, CompletionCode: &code, Skills: []string{"a"}}
			c := w.Clone()
			*c.EmployeeID = "E2"
			*c.CompletionCode = "000000"
			c.Skills[0] = "b"
			Expect(*w.EmployeeID).To(Equal("E1"))
			Expect(*w.CompletionCode).To(Equal("123456"))
			Expect(w.Skills).To(Equal([]string{"a"}))
			Expect(w.IsAssignedTo("E1")).To(BeTrue())
		})
	})
})
