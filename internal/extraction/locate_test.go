package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("locateJSON", func() {
	var (
		output    string
		candidate string
		err       error
	)

	JustBeforeEach(func() {
		candidate, err = locateJSON(output)
	})

	When("the output is a bare object", func() {
		BeforeEach(func() {
			output = `{"title":"Tea"}`
		})

		It("returns it unchanged", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(candidate).To(Equal(`{"title":"Tea"}`))
		})
	})

	When("the object is wrapped in a markdown fence and prose", func() {
		BeforeEach(func() {
			output = "Here you go:\n```json\n{\"title\":\"Quick Pasta\",\"steps\":[\"a\"]}\n```\nEnjoy!"
		})

		It("slices from the first opening to the last closing brace", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(candidate).To(Equal(`{"title":"Quick Pasta","steps":["a"]}`))
		})
	})

	When("the object is nested", func() {
		BeforeEach(func() {
			output = `Result: {"a":{"b":{"c":1}}} done`
		})

		It("keeps the whole top-level object", func() {
			Expect(candidate).To(Equal(`{"a":{"b":{"c":1}}}`))
		})
	})

	When("there are no braces", func() {
		BeforeEach(func() {
			output = "I could not find a recipe in that text."
		})

		It("returns a NoJsonFoundError", func() {
			Expect(err).To(MatchError(ErrNoJSONFound))
		})
	})

	When("only an opening brace is present", func() {
		BeforeEach(func() {
			output = `{"title": "Tea"`
		})

		It("returns a NoJsonFoundError", func() {
			Expect(err).To(MatchError(ErrNoJSONFound))
		})
	})

	When("the closing brace comes before the opening brace", func() {
		BeforeEach(func() {
			output = `} oops {`
		})

		It("returns a NoJsonFoundError", func() {
			Expect(err).To(MatchError(ErrNoJSONFound))
		})
	})
})
