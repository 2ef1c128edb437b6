package dao

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"transtelco-billing/common/database/orm"
)

// SourceCDR is one raw row of the switch's per-month CDR table.
type SourceCDR struct {
	CdrID               int64     `gorm:"column:cdr_id;primaryKey"`
	SrcName             string    `gorm:"column:src_name"`
	RemoteSrcSigAddress string    `gorm:"column:remote_src_sig_address"`
	InANI               string    `gorm:"column:in_ani"`
	OutDNIS             string    `gorm:"column:out_dnis"`
	CdrDate             time.Time `gorm:"column:cdr_date"`
	ElapsedTime         float64   `gorm:"column:elapsed_time"` // milliseconds
}

// SourceTableName returns the month-scoped switch table name.
func SourceTableName(year, month int) string {
	return fmt.Sprintf("mvts_cdr_%04d%02d", year, month)
}

// SourceFilter carries the operational exclusions applied at the source:
// core gateways only show up when the call is toll free, and two DNIS
// shapes are noise from the switch.
type SourceFilter struct {
	TollFreeRegexp string
	CoreGateways   []string
}

// SourceDao reads the remote switch database.
type SourceDao struct {
	db     *gorm.DB
	filter *SourceFilter
}

func NewSource(c *orm.Config, f *SourceFilter) *SourceDao {
	return &SourceDao{db: orm.NewMySQL(c), filter: f}
}

func (s *SourceDao) scope(table string) *gorm.DB {
	db := s.db.Table(table).
		Where("in_ani IS NOT NULL").
		Where("out_dnis IS NOT NULL").
		Where("elapsed_time IS NOT NULL").
		Where("LENGTH(in_ani) >= 10").
		Where("LENGTH(out_dnis) >= 10").
		Where("elapsed_time > 0").
		Where("elapsed_time < 86000000").
		Where("out_dnis NOT REGEXP '^160117656[0-9]{7}$'").
		Where("out_dnis NOT REGEXP '^[0-9]{6}656[0-9]{7}$'")

	if len(s.filter.TollFreeRegexp) != 0 && len(s.filter.CoreGateways) != 0 {
		quoted := make([]string, len(s.filter.CoreGateways))
		for i, g := range s.filter.CoreGateways {
			quoted[i] = "'" + strings.TrimSpace(strings.ReplaceAll(g, "'", "''")) + "'"
		}
		db = db.Where(
			"(out_dnis REGEXP ? AND src_name NOT REGEXP '^Genpact (MX|US)') OR src_name NOT IN ("+strings.Join(quoted, ", ")+")",
			s.filter.TollFreeRegexp)
	}
	return db
}

// CountAfter counts billable source rows above the given id.
func (s *SourceDao) CountAfter(table string, afterID int64) (int64, error) {
	var n int64
	err := s.scope(table).Where("cdr_id > ?", afterID).Count(&n).Error
	return n, errors.Wrapf(err, "count source rows of %s", table)
}

// FetchBatch reads the next batch of billable source rows above afterID in
// id order.
func (s *SourceDao) FetchBatch(table string, afterID int64, limit int) ([]SourceCDR, error) {
	var rows []SourceCDR
	err := s.scope(table).
		Where("cdr_id > ?", afterID).
		Order("cdr_id").
		Limit(limit).
		Find(&rows).Error
	return rows, errors.Wrapf(err, "fetch source rows of %s", table)
}

var cleanRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`^((656|614)\d{7})$`), "52$1"},
	{regexp.MustCompile(`^(55\d{8})$`), "52$1"},
	{regexp.MustCompile(`^(04[45]\d{10})$`), "52$1"},
	{regexp.MustCompile(`^((915|919|956)\d{7})$`), "1$1"},
	{regexp.MustCompile(`^001(\d+)$`), "1$1"},
}

var hostPort = regexp.MustCompile(`:.*$`)

// CleanNumber canonicalizes a raw ANI/DNIS: Juarez/Chihuahua/DF national
// numbers gain the 52 country code, El Paso/Las Cruces area numbers and
// 001-prefixed dials gain 1. Rules apply in order over the result of the
// previous one.
func CleanNumber(num string) string {
	num = strings.TrimSpace(num)
	for _, rule := range cleanRules {
		num = rule.re.ReplaceAllString(num, rule.repl)
	}
	return num
}

// Clean converts a raw switch row into the canonical billing record.
func (r *SourceCDR) Clean() *CallRecord {
	return &CallRecord{
		ID:          r.CdrID,
		Gateway:     strings.TrimSpace(r.SrcName),
		Host:        hostPort.ReplaceAllString(r.RemoteSrcSigAddress, ""),
		Identifier:  strings.TrimSpace(r.InANI),
		CallDate:    r.CdrDate,
		Source:      CleanNumber(r.InANI),
		Destination: CleanNumber(r.OutDNIS),
		Duration:    int(math.Ceil(r.ElapsedTime / 1000.0)),
	}
}
