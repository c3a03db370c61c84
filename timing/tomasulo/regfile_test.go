package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32tomasulo/timing/tomasulo"
)

var _ = Describe("RegFile", func() {
	It("hardwires x0 to zero across Rename/Commit", func() {
		var rf tomasulo.RegFile
		rf.Rename(0, 3)
		rf.Commit(0, 42, 3)
		Expect(rf.Read(0)).To(Equal(uint32(0)))
		value, hasRecorder, _ := rf.Lookup(0)
		Expect(value).To(Equal(uint32(0)))
		Expect(hasRecorder).To(BeFalse())
	})

	It("reports a pending recorder until the matching commit arrives", func() {
		var rf tomasulo.RegFile
		rf.Rename(5, 2)
		_, hasRecorder, recorder := rf.Lookup(5)
		Expect(hasRecorder).To(BeTrue())
		Expect(recorder).To(Equal(2))

		rf.Commit(5, 7, 2)
		Expect(rf.Read(5)).To(Equal(uint32(7)))
		_, hasRecorder, _ = rf.Lookup(5)
		Expect(hasRecorder).To(BeFalse())
	})

	It("leaves a younger recorder untouched when an older commit for the same register lands", func() {
		var rf tomasulo.RegFile
		rf.Rename(5, 2)
		rf.Rename(5, 9) // a second writer of x5 dispatches before the first commits

		rf.Commit(5, 7, 2) // the older (now-stale) writer commits
		_, hasRecorder, recorder := rf.Lookup(5)
		Expect(hasRecorder).To(BeTrue())
		Expect(recorder).To(Equal(9))
	})

	It("clears every pending recorder on ClearRecorders without touching values", func() {
		var rf tomasulo.RegFile
		rf.Rename(5, 2)
		rf.Rename(6, 3)
		rf.Commit(6, 11, 3)

		rf.ClearRecorders()
		_, hasRecorder, _ := rf.Lookup(5)
		Expect(hasRecorder).To(BeFalse())
		Expect(rf.Read(6)).To(Equal(uint32(11)))
	})
})
