package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quoterag/internal/domain"
)

// QuotePort is the console-facing subset of the quotation service.
type QuotePort interface {
	Quote(ctx context.Context, inquiry string, margin *float64) (*domain.Quote, error)
	ProposeDeletion(ctx context.Context, instruction string) (*domain.Proposal[domain.PriceEntry], error)
}

type quoteResult struct {
	inquiry string
	quote   *domain.Quote
}

type quoteMsg struct {
	result quoteResult
	err    error
}

type proposalMsg struct {
	proposal *domain.Proposal[domain.PriceEntry]
	err      error
}

type committedMsg struct {
	deleted int
	err     error
}

// Model is the Bubble Tea model for the quote console.
type Model struct {
	service  QuotePort
	ctx      context.Context
	input    textinput.Model
	viewport viewport.Model
	results  []quoteResult
	pending  *domain.Proposal[domain.PriceEntry]
	margin   *float64
	header   string
	status   string
	cursor   int
	busy     bool
	ready    bool
}

// New creates the console. header is shown under the title, e.g. the
// catalog size and store in use.
func New(ctx context.Context, service QuotePort, header string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Inquiry, /delete <instruction> or /margin <rate>"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		ctx:      ctx,
		input:    ti,
		viewport: vp,
		header:   header,
		status:   "Type an inquiry and press Enter.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header lines, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case quoteMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + describe(msg.err)
			return m, nil
		}
		m.results = append(m.results, msg.result)
		m.cursor = len(m.results) - 1
		m.status = fmt.Sprintf("Quote for %q", msg.result.inquiry)
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case proposalMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + describe(msg.err)
			return m, nil
		}
		if msg.proposal.Empty() {
			m.status = fmt.Sprintf("Nothing matches %q.", msg.proposal.Instruction)
			return m, nil
		}
		m.pending = msg.proposal
		m.status = fmt.Sprintf("Delete these %d entries? (y/n)", len(msg.proposal.Items))
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case committedMsg:
		m.busy = false
		if msg.err != nil {
			// the proposal is still unresolved; y retries, n drops it
			m.status = "Error: " + describe(msg.err) + " Retry? (y/n)"
			return m, nil
		}
		m.pending = nil
		m.status = fmt.Sprintf("Deleted %d entries.", msg.deleted)
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.pending != nil {
			return m.confirm(msg)
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.SetValue("")
			return m.run(line)
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// run dispatches one input line.
func (m Model) run(line string) (tea.Model, tea.Cmd) {
	switch {
	case strings.HasPrefix(line, "/margin"):
		arg := strings.TrimSpace(strings.TrimPrefix(line, "/margin"))
		if arg == "" {
			m.margin = nil
			m.status = "Margin reset to the configured default."
			return m, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(arg, "%"), 64)
		if err != nil {
			m.status = fmt.Sprintf("Not a margin: %q", arg)
			return m, nil
		}
		if strings.HasSuffix(arg, "%") {
			v /= 100
		}
		m.margin = &v
		m.status = fmt.Sprintf("Margin set to %s%%.", strconv.FormatFloat(v*100, 'f', -1, 64))
		return m, nil

	case strings.HasPrefix(line, "/delete"):
		instruction := strings.TrimSpace(strings.TrimPrefix(line, "/delete"))
		if instruction == "" {
			m.status = "Usage: /delete <instruction>"
			return m, nil
		}
		m.busy = true
		m.status = "Finding matching entries..."
		svc, ctx := m.service, m.ctx
		return m, func() tea.Msg {
			p, err := svc.ProposeDeletion(ctx, instruction)
			return proposalMsg{proposal: p, err: err}
		}

	default:
		m.busy = true
		m.status = "Composing quote..."
		svc, ctx, margin := m.service, m.ctx, m.margin
		return m, func() tea.Msg {
			q, err := svc.Quote(ctx, line, margin)
			return quoteMsg{result: quoteResult{inquiry: line, quote: q}, err: err}
		}
	}
}

// confirm resolves the pending deletion proposal.
func (m Model) confirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		p, ctx := m.pending, m.ctx
		m.busy = true
		m.status = "Deleting..."
		return m, func() tea.Msg {
			n, err := p.Commit(ctx)
			return committedMsg{deleted: n, err: err}
		}
	case "n", "esc":
		m.pending.Discard()
		m.pending = nil
		m.status = "Deletion cancelled."
		m.viewport.SetContent(m.renderBody())
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := lipgloss.NewStyle().Bold(true).Render("Price Quotation Console")
	header := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.header)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := resultBoxStyle.Render(m.viewport.View())
	return title + "\n" + header + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	if m.pending != nil {
		return renderProposal(m.pending)
	}
	if len(m.results) == 0 {
		return "No quotes yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Quote %d/%d  %s", m.cursor+1, len(m.results), r.inquiry)
	return title + "\n\n" + renderQuote(r.quote)
}

func renderQuote(q *domain.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %-12s %-6s %10s %10s %8s %12s  %s\n",
		"name", "spec", "unit", "cost", "price", "qty", "total", "supplier")
	for _, it := range q.Items {
		fmt.Fprintf(&b, "%-18s %-12s %-6s %10s %10s %8s %12s  %s\n",
			it.Name, it.Spec, it.Unit, num(it.CostPrice), num(it.UnitPrice), num(it.Quantity), num(it.Total), it.Supplier)
	}
	b.WriteString("\n")
	b.WriteString(highlightStyle.Render(fmt.Sprintf("total %s   cost %s", num(q.TotalAmount), num(q.TotalCost))))
	if q.Note != "" {
		b.WriteString("\n" + q.Note)
	}
	return b.String()
}

func renderProposal(p *domain.Proposal[domain.PriceEntry]) string {
	var b strings.Builder
	b.WriteString(warnStyle.Render(fmt.Sprintf("%q matches %d entries:", p.Instruction, len(p.Items))))
	b.WriteString("\n\n")
	for _, e := range p.Items {
		fmt.Fprintf(&b, "%-38s %-18s %-12s %-6s %10s  %s\n",
			e.ID, e.Name, e.Spec, e.Unit, strconv.FormatFloat(e.Price, 'f', -1, 64), e.Supplier)
	}
	return b.String()
}

func num(a domain.Amount) string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// describe keeps the raw oracle text visible when its output did not parse.
func describe(err error) string {
	var ofe *domain.OracleFormatError
	if errors.As(err, &ofe) {
		return "oracle returned malformed output:\n" + ofe.Raw
	}
	return err.Error()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)
