package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/neoload/internal/services"
	"github.com/vvka-141/neoload/pkg/neoload"
)

func update(m progressModel, msgs ...any) progressModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(progressModel)
	}
	return m
}

func TestProgressModel_TracksPartitions(t *testing.T) {
	m := newProgressModel()
	start := m.started
	m.now = func() time.Time { return start.Add(3 * time.Second) }

	m = update(m,
		stageMsg("Loading people.csv (1/2)"),
		partitionMsg(services.PartitionOutcome{Index: 0, Rows: 10, Counters: neoload.Counters{NodesCreated: 10}}),
		partitionMsg(services.PartitionOutcome{Index: 1, Rows: 5, Err: errors.New("boom")}),
		partitionMsg(services.PartitionOutcome{Index: 2, Rows: 7, Counters: neoload.Counters{NodesCreated: 7}}),
	)

	assert.Equal(t, 2, m.succeeded)
	assert.Equal(t, 1, m.failed)
	assert.Equal(t, 17, m.rows, "failed partitions do not count rows")
	assert.Equal(t, 17, m.counters.NodesCreated)

	view := m.View()
	assert.Contains(t, view, "Loading people.csv (1/2)")
	assert.Contains(t, view, "partitions 2 ok")
	assert.Contains(t, view, "1 failed")
	assert.Contains(t, view, "rows 17")
	assert.Contains(t, view, "nodes_created=17")
	assert.Contains(t, view, "3s")
}

func TestProgressModel_FinishClearsView(t *testing.T) {
	m := newProgressModel()
	next, cmd := m.Update(finishMsg{})

	assert.NotNil(t, cmd)
	assert.Empty(t, next.(progressModel).View())
}

func TestProgress_LogsDirectlyWhenNotRunning(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false)

	p.Info("hello %s", "world")
	p.Verbose("hidden")
	p.Error("bad")
	p.SetStage("ignored while stopped")
	p.Stop()

	out := buf.String()
	assert.Contains(t, out, "hello world")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "bad")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestProgress_ImplementsObservers(t *testing.T) {
	var _ neoload.Logger = (*Progress)(nil)
	var _ services.LoadObserver = (*Progress)(nil)
	var _ services.IngestObserver = (*Progress)(nil)
}
