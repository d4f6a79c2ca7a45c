package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildPrompt", func() {
	When("the input is text", func() {
		It("fixes the schema in the system instruction and passes the text verbatim", func() {
			p, err := BuildPrompt(TextInput("  2 eggs\nwhisk them  "))
			Expect(err).NotTo(HaveOccurred())
			Expect(p.System).To(ContainSubstring(`"cookTime"`))
			Expect(p.System).To(ContainSubstring(`"ingredients"`))
			Expect(p.System).To(ContainSubstring("Do not include any text before or after the JSON"))
			Expect(p.User).To(Equal("  2 eggs\nwhisk them  "))
			Expect(p.Image).To(BeNil())
		})

		It("is deterministic", func() {
			a, _ := BuildPrompt(TextInput("x"))
			b, _ := BuildPrompt(TextInput("x"))
			Expect(a).To(Equal(b))
		})
	})

	When("the input is an image", func() {
		It("builds a single user message carrying the image and the schema", func() {
			p, err := BuildPrompt(ImageInput([]byte{1, 2, 3}, "image/jpeg"))
			Expect(err).NotTo(HaveOccurred())
			Expect(p.System).To(BeEmpty())
			Expect(p.User).To(ContainSubstring("minified JSON"))
			Expect(p.User).To(ContainSubstring(`"steps"`))
			Expect(p.Image).To(Equal(&ImagePart{MimeType: "image/jpeg", Data: []byte{1, 2, 3}}))
		})
	})

	When("the input kind is unknown", func() {
		It("returns an InputError", func() {
			_, err := BuildPrompt(RawInput{Kind: "audio"})
			Expect(err).To(MatchError(ErrInput))
		})
	})
})
