package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roadworksco/milepost/pkg/manual"
	"github.com/roadworksco/milepost/pkg/manual/chunker"
	"github.com/roadworksco/milepost/pkg/manual/extract"
)

func TestChunker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chunker Suite")
}

var _ = Describe("Chunker", func() {
	keywords := []string{
		"night", "nighttime", "daytime", "off-peak", "peak", "curfew",
		"hours of work", "work hours", "lane closure", "closure window",
	}

	Describe("New", func() {
		It("rejects a non-positive size", func() {
			_, err := chunker.New(0, 0.125, keywords)
			Expect(err).To(HaveOccurred())
		})

		It("rejects overlap outside [0, 1)", func() {
			_, err := chunker.New(5000, 1.0, keywords)
			Expect(err).To(HaveOccurred())

			_, err = chunker.New(5000, -0.1, keywords)
			Expect(err).To(HaveOccurred())
		})

		It("derives the stride by rounding size times one minus overlap", func() {
			c, err := chunker.New(5000, 0.125, keywords)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Stride()).To(Equal(4375))
		})
	})

	Describe("Split", func() {
		It("returns nothing for empty text", func() {
			c, err := chunker.New(100, 0.25, keywords)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Split("")).To(BeEmpty())
		})

		It("returns a single window for text shorter than the size", func() {
			c, err := chunker.New(100, 0.25, keywords)
			Expect(err).NotTo(HaveOccurred())

			windows := c.Split("short")
			Expect(windows).To(HaveLen(1))
			Expect(windows[0]).To(Equal("short"))
		})

		It("advances by the stride with overlapping windows", func() {
			c, err := chunker.New(10, 0.2, keywords)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Stride()).To(Equal(8))

			text := strings.Repeat("abcdefghij", 3)
			windows := c.Split(text)
			Expect(windows).To(HaveLen(4))
			Expect(windows[0]).To(Equal("abcdefghij"))
			Expect(windows[1]).To(Equal("ijabcdefgh"))
			Expect(windows[3]).To(HaveLen(6))

			// Each window starts with the tail of its predecessor.
			Expect(windows[1][:2]).To(Equal(windows[0][8:]))
		})

		It("never splits multi-byte characters", func() {
			c, err := chunker.New(4, 0.5, keywords)
			Expect(err).NotTo(HaveOccurred())

			windows := c.Split("日本語のテキスト")
			Expect(windows).NotTo(BeEmpty())
			for _, w := range windows {
				Expect(utf8.ValidString(w)).To(BeTrue())
			}
		})

		It("drops whitespace-only windows", func() {
			c, err := chunker.New(4, 0, keywords)
			Expect(err).NotTo(HaveOccurred())

			windows := c.Split("abcd        wxyz")
			for _, w := range windows {
				Expect(strings.TrimSpace(w)).NotTo(BeEmpty())
			}
		})
	})

	Describe("Tag", func() {
		var c *chunker.Chunker

		BeforeEach(func() {
			var err error
			c, err = chunker.New(5000, 0.125, keywords)
			Expect(err).NotTo(HaveOccurred())
		})

		It("matches keywords case-insensitively", func() {
			ok, matched := c.Tag("Lane Closure operations are restricted to NIGHT work.")
			Expect(ok).To(BeTrue())
			Expect(matched).To(ContainElements("lane closure", "night"))
		})

		It("matches multi-word keywords", func() {
			ok, matched := c.Tag("The hours of work shall be posted.")
			Expect(ok).To(BeTrue())
			Expect(matched).To(ContainElement("hours of work"))
		})

		It("reports no match when no keyword appears", func() {
			ok, matched := c.Tag("Pothole repair uses hot mix asphalt.")
			Expect(ok).To(BeFalse())
			Expect(matched).To(BeEmpty())
		})
	})

	Describe("ChunkDocument", func() {
		It("assigns page numbers and a file-global index", func() {
			c, err := chunker.New(10, 0, keywords)
			Expect(err).NotTo(HaveOccurred())

			pages := []extract.Page{
				{Number: 1, Text: strings.Repeat("x", 25)},
				{Number: 2, Text: ""},
				{Number: 3, Text: "night work only"},
			}

			chunks := c.ChunkDocument(manual.StateCA, "CA Manual", "CA_Manual.pdf", pages)
			Expect(chunks).To(HaveLen(5))

			for i, ch := range chunks {
				Expect(ch.Index).To(Equal(i))
				Expect(ch.State).To(Equal(manual.StateCA))
				Expect(ch.SourceFile).To(Equal("CA_Manual.pdf"))
			}

			Expect(chunks[0].Page).To(Equal(1))
			Expect(chunks[2].Page).To(Equal(1))
			Expect(chunks[3].Page).To(Equal(3))

			Expect(chunks[3].HasTimeKeywords).To(BeTrue())
			Expect(chunks[0].HasTimeKeywords).To(BeFalse())
		})

		It("is deterministic", func() {
			c, err := chunker.New(12, 0.25, keywords)
			Expect(err).NotTo(HaveOccurred())

			pages := []extract.Page{{Number: 1, Text: "curfew applies from 6 AM to 9 AM on weekdays"}}

			first := c.ChunkDocument(manual.StateTX, "TX Manual", "TX_Manual.pdf", pages)
			second := c.ChunkDocument(manual.StateTX, "TX Manual", "TX_Manual.pdf", pages)
			Expect(second).To(Equal(first))

			for i := range first {
				Expect(first[i].ID()).To(Equal(second[i].ID()))
			}
		})
	})
})
