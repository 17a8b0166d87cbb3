package tui

import "charm.land/bubbles/v2/key"

type keyMap struct {
	quit          key.Binding
	toggleHelp    key.Binding
	reload        key.Binding
	selectPrev    key.Binding
	selectNext    key.Binding
	addTask       key.Binding
	deleteTask    key.Binding
	cyclePriority key.Binding
	tap           key.Binding
	commitDrag    key.Binding
	search        key.Binding
	taskInfo      key.Binding
	copyText      key.Binding
	archive       key.Binding
	reset         key.Binding
	largeFont     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload config")),
		selectPrev:    key.NewBinding(key.WithKeys("h", "left", "shift+tab"), key.WithHelp("h/←", "previous card")),
		selectNext:    key.NewBinding(key.WithKeys("l", "right", "tab"), key.WithHelp("l/→", "next card")),
		addTask:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		deleteTask:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete card")),
		cyclePriority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "cycle priority")),
		tap:           key.NewBinding(key.WithKeys("space", "enter"), key.WithHelp("space", "tap (restore done)")),
		commitDrag:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "swipe left (complete)")),
		search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		taskInfo:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "card info")),
		copyText:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy text")),
		archive:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive")),
		reset:         key.NewBinding(key.WithKeys("R", "shift+r"), key.WithHelp("R", "reset to seed")),
		largeFont:     key.NewBinding(key.WithKeys("F", "shift+f"), key.WithHelp("F", "large font")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.commitDrag, k.tap, k.search, k.taskInfo, k.archive, k.toggleHelp, k.quit,
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.selectPrev, k.selectNext, k.tap, k.commitDrag},
		{k.addTask, k.deleteTask, k.cyclePriority, k.copyText},
		{k.search, k.taskInfo, k.archive, k.largeFont, k.reset, k.reload, k.toggleHelp, k.quit},
	}
}
