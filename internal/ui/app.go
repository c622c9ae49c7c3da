package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/difm/internal/artwork"
	"github.com/five82/difm/internal/audioaddict"
	"github.com/five82/difm/internal/catalog"
	"github.com/five82/difm/internal/prefs"
	"github.com/five82/difm/internal/state"
)

// Options configures the UI.
type Options struct {
	Context        context.Context
	Store          *state.Store
	Settings       *prefs.Settings
	Artwork        *artwork.Cache
	Classification catalog.Classification
	User           catalog.AuthenticatedUser
}

var artworkSize = audioaddict.Size{Width: 300, Height: 300}

// artState tracks the artwork load for one channel.
type artState struct {
	loading bool
	img     artwork.Image
	err     error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx            context.Context
	store          *state.Store
	settings       *prefs.Settings
	artwork        *artwork.Cache
	classification catalog.Classification
	user           catalog.AuthenticatedUser
	keys           keyMap

	// UI state
	theme         Theme
	width         int
	height        int
	showHelp      bool
	favoritesOnly bool
	status        string

	// Data state
	snapshot state.Snapshot
	updates  <-chan state.Snapshot
	cancel   func()
	art      map[int]artState

	list    list.Model
	spinner spinner.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := ""
	if opts.Settings != nil {
		themeName = opts.Settings.Theme()
	}
	theme := GetTheme(themeName)

	l := list.New(nil, theme.Delegate(), 0, 0)
	l.Title = "Channels"
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:            ctx,
		store:          opts.Store,
		settings:       opts.Settings,
		artwork:        opts.Artwork,
		classification: opts.Classification,
		user:           opts.User,
		keys:           DefaultKeyMap(),
		theme:          theme,
		art:            make(map[int]artState),
		list:           l,
		spinner:        sp,
		cancel:         func() {},
	}
	if opts.Store != nil {
		m.updates, m.cancel = opts.Store.Subscribe()
		m.snapshot = opts.Store.Snapshot()
		m.list.SetItems(m.items())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.updates != nil {
		cmds = append(cmds, waitSnapshotCmd(m.updates))
	}
	if cmd := m.loadSelectedArtwork(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.listWidth(), max(m.height-3, 1))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		cmds := []tea.Cmd{m.list.SetItems(m.items()), waitSnapshotCmd(m.updates)}
		if cmd := m.loadSelectedArtwork(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case artworkMsg:
		m.art[msg.channelID] = artState{img: msg.img, err: msg.err}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.CycleTheme):
			m.cycleTheme()
			return m, nil
		case key.Matches(msg, m.keys.CycleQuality):
			m.cycleQuality()
			return m, nil
		case key.Matches(msg, m.keys.Favorites):
			m.favoritesOnly = !m.favoritesOnly
			return m, m.list.SetItems(m.items())
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds := []tea.Cmd{cmd}
	if load := m.loadSelectedArtwork(); load != nil {
		cmds = append(cmds, load)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) cycleTheme() {
	next := NextTheme(m.theme.Name)
	m.theme = GetTheme(next)
	m.list.SetDelegate(m.theme.Delegate())
	if m.settings != nil {
		if err := m.settings.SetTheme(next); err != nil {
			m.status = err.Error()
		}
	}
}

// cycleQuality stores the next stream quality. The refresher picks up the
// change and refetches the catalog.
func (m *Model) cycleQuality() {
	if m.settings == nil {
		return
	}
	next := nextQuality(m.settings.StreamQuality())
	if err := m.settings.SetStreamQuality(next); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "Switching to " + next.Description()
}

func nextQuality(current catalog.Quality) catalog.Quality {
	all := catalog.Qualities()
	for i, q := range all {
		if q == current {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

// items lists the channels of every visible filter, each channel once.
func (m Model) items() []list.Item {
	if !m.snapshot.HasCatalog {
		return nil
	}
	seen := make(map[int]struct{})
	var items []list.Item
	for _, f := range m.snapshot.Catalog.VisibleFilters(m.classification) {
		for _, ch := range f.Channels {
			if _, dup := seen[ch.ID]; dup {
				continue
			}
			if m.favoritesOnly && !m.user.IsFavorite(ch.ID) {
				continue
			}
			seen[ch.ID] = struct{}{}
			items = append(items, channelItem{channel: ch, filter: f.Name, favorite: m.user.IsFavorite(ch.ID)})
		}
	}
	return items
}

func (m Model) selectedChannel() (catalog.Channel, bool) {
	item, ok := m.list.SelectedItem().(channelItem)
	if !ok {
		return catalog.Channel{}, false
	}
	return item.channel, true
}

// loadSelectedArtwork starts an artwork load for the selected channel if one
// has not been requested yet.
func (m Model) loadSelectedArtwork() tea.Cmd {
	if m.artwork == nil {
		return nil
	}
	ch, ok := m.selectedChannel()
	if !ok {
		return nil
	}
	if _, requested := m.art[ch.ID]; requested {
		return nil
	}
	m.art[ch.ID] = artState{loading: true}
	return loadArtworkCmd(m.ctx, m.artwork, ch)
}

func (m Model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	return max(m.width/2, 20)
}

// View implements tea.Model.
func (m Model) View() string {
	styles := m.theme.Styles()
	if m.showHelp {
		return m.renderHelp(styles)
	}

	header := m.renderHeader(styles)
	if !m.snapshot.HasCatalog {
		msg := m.spinner.View() + " Loading catalog..."
		if m.snapshot.LastError != nil {
			msg += "\n" + styles.DangerText.Render(m.snapshot.LastError.Error())
		}
		return header + "\n" + msg
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.renderDetail(styles))
	return header + "\n" + body + "\n" + m.renderFooter(styles)
}

func (m Model) renderFooter(styles Styles) string {
	hints := make([]string, 0, 6)
	for _, binding := range m.keys.bindings() {
		h := binding.Help()
		hints = append(hints, h.Key+" "+strings.ToLower(h.Desc))
	}
	hints = append(hints, "/ filter", "q quit")
	return styles.Footer.Render(strings.Join(hints, "  "))
}

func (m Model) renderHeader(styles Styles) string {
	parts := []string{styles.Logo.Render("difm")}
	if name := m.user.DisplayName(); name != "" {
		parts = append(parts, styles.MutedText.Render(name))
	}

	quality := m.snapshot.Quality
	if m.settings != nil {
		quality = m.settings.StreamQuality()
	}
	tier := "public"
	if quality.IsPremium() {
		tier = "premium"
	}
	parts = append(parts, styles.StatusStyle(tier).Render(quality.Description()))

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, styles.StatusStyle("offline").Render("offline"))
	case !m.snapshot.HasCatalog:
		parts = append(parts, styles.StatusStyle("loading").Render("loading"))
	default:
		parts = append(parts, styles.StatusStyle("online").Render("updated "+m.snapshot.LastUpdated.Format(time.Kitchen)))
	}
	if m.favoritesOnly {
		parts = append(parts, styles.AccentText.Render("favorites"))
	}
	if m.status != "" {
		parts = append(parts, styles.WarningText.Render(m.status))
	}
	return styles.Header.Render(strings.Join(parts, "  "))
}

func (m Model) renderDetail(styles Styles) string {
	ch, ok := m.selectedChannel()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.AccentText.Render(ch.Name))
	b.WriteString("\n")
	if ch.DescriptionShort != "" {
		b.WriteString(styles.MutedText.Render(ch.DescriptionShort))
		b.WriteString("\n")
	}
	if ch.Director != "" {
		b.WriteString(styles.Text.Render("Director: " + ch.Director))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if stream, ok := m.snapshot.Catalog.StreamFor(ch.ID); ok {
		if u, err := stream.AuthorizedURL(m.user.ListenKey); err == nil {
			b.WriteString(styles.SuccessText.Render("Stream: ") + styles.Text.Render(u))
			b.WriteString("\n")
		}
		if stream.Bitrate > 0 {
			b.WriteString(styles.Text.Render(fmt.Sprintf("Bitrate: %d kbps %s", stream.Bitrate, stream.Format)))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(styles.FaintText.Render("No stream in this quality"))
		b.WriteString("\n")
	}

	switch art, requested := m.art[ch.ID]; {
	case !requested:
	case art.loading:
		b.WriteString(styles.FaintText.Render("Artwork: loading"))
	case art.err != nil:
		b.WriteString(styles.DangerText.Render("Artwork: " + art.err.Error()))
	default:
		b.WriteString(styles.InfoText.Render(fmt.Sprintf("Artwork: %s %dx%d (%d bytes)", art.img.Format, art.img.Width, art.img.Height, len(art.img.Data))))
	}

	width := max(m.width-m.listWidth()-2, 20)
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Render(b.String())
}

func (m Model) renderHelp(styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.Logo.Render("difm keys"))
	b.WriteString("\n\n")
	for _, binding := range m.keys.bindings() {
		h := binding.Help()
		fmt.Fprintf(&b, "  %-4s %s\n", h.Key, h.Desc)
	}
	b.WriteString("  /    Filter channels\n")
	b.WriteString("  q    Quit\n\n")
	b.WriteString(styles.FaintText.Render("Press any key to close"))
	return styles.Panel.Render(b.String())
}

// channelItem adapts a catalog channel to the list component.
type channelItem struct {
	channel  catalog.Channel
	filter   string
	favorite bool
}

func (i channelItem) Title() string {
	if i.favorite {
		return "★ " + i.channel.Name
	}
	return i.channel.Name
}

func (i channelItem) Description() string {
	if i.channel.DescriptionShort != "" {
		return i.filter + " · " + i.channel.DescriptionShort
	}
	return i.filter
}

func (i channelItem) FilterValue() string { return i.channel.Name }

// Messages

type snapshotMsg state.Snapshot

type artworkMsg struct {
	channelID int
	img       artwork.Image
	err       error
}

// Commands

func waitSnapshotCmd(ch <-chan state.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func loadArtworkCmd(ctx context.Context, cache *artwork.Cache, ch catalog.Channel) tea.Cmd {
	return func() tea.Msg {
		img, err := cache.Load(ctx, ch, artworkSize)
		return artworkMsg{channelID: ch.ID, img: img, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	defer m.cancel()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
