package mediator

import (
	"time"

	"github.com/RussellLuo/timingwheel"
	"go.uber.org/atomic"

	"transtelco-billing/common/log"
	"transtelco-billing/dao"
)

type Config struct {
	Interval  int // minutes between extraction sweeps
	BatchSize int
}

// Mediator copies new switch CDRs into the billing store: fetch the rows
// above the last mediated id, clean the numbers, insert in batches. Source
// ids are reused as billing ids, which is what makes the sweep resumable.
type Mediator struct {
	c   *Config
	src *dao.SourceDao
	dst *dao.Dao

	tw      *timingwheel.TimingWheel
	timer   *timingwheel.Timer
	running atomic.Bool
}

func New(c *Config, src *dao.SourceDao, dst *dao.Dao) *Mediator {
	if c.Interval <= 0 {
		c.Interval = 20
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5000
	}
	return &Mediator{
		c:   c,
		src: src,
		dst: dst,
		tw:  timingwheel.NewTimingWheel(time.Second, 300),
	}
}

// Start runs one sweep immediately, then one per interval. Sweeps never
// overlap: a tick that lands while one is running is skipped.
func (m *Mediator) Start() {
	m.tw.Start()
	m.sweep()
	m.schedule()
}

func (m *Mediator) Stop() {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.tw.Stop()
}

func (m *Mediator) schedule() {
	m.timer = m.tw.AfterFunc(time.Duration(m.c.Interval)*time.Minute, func() {
		m.sweep()
		m.schedule()
	})
}

func (m *Mediator) sweep() {
	if !m.running.CAS(false, true) {
		log.Warn("extraction sweep still running, skipping tick")
		return
	}
	defer m.running.Store(false)

	now := time.Now()
	if err := m.RunOnce(now.Year(), int(now.Month())); err != nil {
		log.Errorf("extraction sweep: %v", err)
	}
}

// RunOnce extracts everything the billing table does not have yet for one
// month. Safe to call for past months to backfill.
func (m *Mediator) RunOnce(year, month int) error {
	srcTable := dao.SourceTableName(year, month)
	dstTable := dao.CDRTableName(year, month)

	if err := m.dst.CreateCDRTable(dstTable); err != nil {
		return err
	}
	lastID, err := m.dst.LastCDRID(dstTable)
	if err != nil {
		return err
	}
	remaining, err := m.src.CountAfter(srcTable, lastID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		log.Debugf("%s up to date (last id %d)", dstTable, lastID)
		return nil
	}
	log.Infof("extracting %d records from %s (after id %d)", remaining, srcTable, lastID)

	start := time.Now()
	extracted := int64(0)
	for {
		rows, err := m.src.FetchBatch(srcTable, lastID, m.c.BatchSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			break
		}

		records := make([]*dao.CallRecord, len(rows))
		for i := range rows {
			records[i] = rows[i].Clean()
		}
		if err := m.dst.MultiInsertCDR(dstTable, records); err != nil {
			return err
		}
		lastID = rows[len(rows)-1].CdrID
		extracted += int64(len(rows))
		log.Infof("extraction %s: %d/%d", dstTable, extracted, remaining)
	}

	log.Infof("extraction %s done: %d records in %s", dstTable, extracted, time.Since(start).Round(time.Second))
	return nil
}
