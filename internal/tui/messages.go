package tui

import (
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/Veraticus/punchdash/internal/settings"
)

// Messages tagged with an epoch belong to one visit of a view. They are
// dropped once that view is left or re-entered.

// Dashboard messages.
type sampleTickMsg struct {
	epoch int
}

type sampleFetchedMsg struct {
	err    error
	result service.SampleResult
	epoch  int
}

type statsFetchedMsg struct {
	err   error
	stats *model.Statistics
	epoch int
}

// verdictPushedMsg is applied whatever view is active; the verdict belongs
// to the session, not to the visit that started it.
type verdictPushedMsg struct {
	err     error
	stats   *model.Statistics
	verdict model.Verdict
}

// Settings messages.
type reconnectTickMsg struct {
	epoch int
}

type connectivityMsg struct {
	err    error
	result service.ConnectivityResult
	epoch  int
}

type settingsSavedMsg struct {
	err   error
	conn  settings.Connection
	epoch int
}

type statsDeletedMsg struct {
	err   error
	epoch int
	ok    bool
}

type clearDeleteLabelMsg struct {
	epoch int
	seq   int
}
