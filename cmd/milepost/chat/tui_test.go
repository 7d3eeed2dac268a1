package chatcmder

import (
	"context"
	"testing"

	bubbletea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roadworksco/milepost/pkg/logger"
	"github.com/roadworksco/milepost/pkg/manual"
	"github.com/roadworksco/milepost/pkg/rag"
	testutils "github.com/roadworksco/milepost/pkg/utils/test"
)

func TestChat(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chat Suite")
}

func newTestModel() chatModel {
	driver := testutils.NewMockVectorDriver()
	driver.RecordedModel = "mock-embed"
	service := rag.NewService(
		driver,
		testutils.NewMockEmbedder(),
		testutils.NewMockGenerator("answer text"),
		rag.SynthesizerOpts{},
		logger.Nop(),
	)
	return newChatModel(context.Background(), service, manual.StateCA, 10)
}

var _ = Describe("Chat TUI", func() {
	Describe("state cycling", func() {
		It("advances through CA, TX, WA and wraps", func() {
			model := newTestModel()
			Expect(model.state()).To(Equal(manual.StateCA))

			for _, want := range []manual.State{manual.StateTX, manual.StateWA, manual.StateCA} {
				updated, _ := model.Update(bubbletea.KeyMsg{Type: bubbletea.KeyTab})
				model = updated.(chatModel)
				Expect(model.state()).To(Equal(want))
			}
		})
	})

	Describe("submit", func() {
		It("ignores empty input", func() {
			model := newTestModel()
			updated, cmd := model.submit()
			model = updated.(chatModel)

			Expect(model.entries).To(BeEmpty())
			Expect(model.waiting).To(BeFalse())
			Expect(cmd).To(BeNil())
		})

		It("records the question and enters the waiting state", func() {
			model := newTestModel()
			model.input.SetValue("When does night work apply?")

			updated, cmd := model.submit()
			model = updated.(chatModel)

			Expect(model.entries).To(HaveLen(1))
			Expect(model.entries[0].question).To(Equal("When does night work apply?"))
			Expect(model.entries[0].state).To(Equal(manual.StateCA))
			Expect(model.waiting).To(BeTrue())
			Expect(model.input.Value()).To(BeEmpty())
			Expect(cmd).NotTo(BeNil())
		})

		It("refuses a second question while waiting", func() {
			model := newTestModel()
			model.input.SetValue("first")
			updated, _ := model.submit()
			model = updated.(chatModel)

			model.input.SetValue("second")
			updated, cmd := model.submit()
			model = updated.(chatModel)

			Expect(model.entries).To(HaveLen(1))
			Expect(cmd).To(BeNil())
		})
	})

	Describe("answer delivery", func() {
		It("attaches the answer to its entry and stops waiting", func() {
			model := newTestModel()
			model.input.SetValue("question")
			updated, _ := model.submit()
			model = updated.(chatModel)

			resp := &rag.AskResponse{Answer: rag.Answer{Text: "the answer"}}
			updated, _ = model.Update(answerMsg{index: 0, answer: resp})
			model = updated.(chatModel)

			Expect(model.waiting).To(BeFalse())
			Expect(model.entries[0].answer).To(Equal(resp))
		})
	})

	Describe("transcript keys", func() {
		It("toggles the chunk debug view", func() {
			model := newTestModel()
			Expect(model.showChunks).To(BeFalse())

			updated, _ := model.Update(bubbletea.KeyMsg{Type: bubbletea.KeyCtrlR})
			model = updated.(chatModel)
			Expect(model.showChunks).To(BeTrue())
		})

		It("clears the transcript", func() {
			model := newTestModel()
			model.input.SetValue("question")
			updated, _ := model.submit()
			model = updated.(chatModel)
			updated, _ = model.Update(answerMsg{index: 0, answer: &rag.AskResponse{}})
			model = updated.(chatModel)

			updated, _ = model.Update(bubbletea.KeyMsg{Type: bubbletea.KeyCtrlL})
			model = updated.(chatModel)
			Expect(model.entries).To(BeEmpty())
		})

		It("does not clear mid-question", func() {
			model := newTestModel()
			model.input.SetValue("question")
			updated, _ := model.submit()
			model = updated.(chatModel)

			updated, _ = model.Update(bubbletea.KeyMsg{Type: bubbletea.KeyCtrlL})
			model = updated.(chatModel)
			Expect(model.entries).To(HaveLen(1))
		})
	})

	Describe("askCmd", func() {
		It("runs the question through the service", func() {
			model := newTestModel()
			cmd := askCmd(context.Background(), model.service, "hours?", manual.StateCA, 10, 0)

			msg := cmd()
			answer, ok := msg.(answerMsg)
			Expect(ok).To(BeTrue())
			Expect(answer.err).NotTo(HaveOccurred())
			Expect(answer.answer.Text).To(ContainSubstring("answer"))
		})
	})

	Describe("tailLines", func() {
		lines := []string{"a", "b", "c", "d", "e"}

		It("returns everything when it fits", func() {
			Expect(tailLines(lines, 10, 0)).To(Equal(lines))
		})

		It("returns the tail when it does not", func() {
			Expect(tailLines(lines, 2, 0)).To(Equal([]string{"d", "e"}))
		})

		It("scrolls up from the tail", func() {
			Expect(tailLines(lines, 2, 1)).To(Equal([]string{"c", "d"}))
		})

		It("clamps scrolling past the top", func() {
			Expect(tailLines(lines, 2, 99)).To(Equal([]string{"a", "b"}))
		})
	})

	Describe("wrapStyled", func() {
		It("wraps on word boundaries", func() {
			style := chatAnswerStyle
			lines := wrapStyled("one two three four", 9, style)
			Expect(lines).To(HaveLen(2))
		})

		It("returns nothing for blank text", func() {
			Expect(wrapStyled("   ", 10, chatAnswerStyle)).To(BeEmpty())
		})
	})
})
