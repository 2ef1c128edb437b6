package dao

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"transtelco-billing/common/log"
)

// CallRecord is one cleaned CDR in the billing store. The core fields are
// immutable once mediated in; the ownership and pricing columns are the two
// annotation slots a billing run writes, and the only ones a re-run clears.
type CallRecord struct {
	ID          int64     `gorm:"column:id;primaryKey" json:"id"`
	Gateway     string    `gorm:"column:gateway" json:"gateway"`
	Host        string    `gorm:"column:host" json:"host"`
	Identifier  string    `gorm:"column:identifier" json:"identifier"`
	CallDate    time.Time `gorm:"column:call_date" json:"call_date"`
	Source      string    `gorm:"column:source" json:"source"`
	Destination string    `gorm:"column:destination" json:"destination"`
	Duration    int       `gorm:"column:duration" json:"duration"` // seconds

	// ownership annotation
	CustomerID *int64 `gorm:"column:customer_id" json:"customer_id,omitempty"`
	OriginID   *int64 `gorm:"column:origin_id" json:"origin_id,omitempty"`

	// pricing annotation
	PricingMethod *string  `gorm:"column:pricing_method" json:"pricing_method,omitempty"`
	CallType      *string  `gorm:"column:call_type" json:"call_type,omitempty"`
	TrunkType     *string  `gorm:"column:trunk_type" json:"trunk_type,omitempty"`
	Currency      *string  `gorm:"column:currency" json:"currency,omitempty"`
	Minutes       *int     `gorm:"column:minutes" json:"minutes,omitempty"`
	Total         *float64 `gorm:"column:total" json:"total,omitempty"`
}

// CDRTableName returns the month-scoped billing table name.
func CDRTableName(year, month int) string {
	return fmt.Sprintf("call_detail_records_%04d%02d", year, month)
}

func (d *Dao) CreateCDRTable(table string) error {
	sql := "CREATE TABLE IF NOT EXISTS `" + table + "` (" +
		"`id` bigint(20) NOT NULL," +
		"`gateway` varchar(128) DEFAULT NULL," +
		"`host` varchar(64) DEFAULT NULL," +
		"`identifier` varchar(64) DEFAULT NULL," +
		"`call_date` datetime DEFAULT NULL," +
		"`source` varchar(64) DEFAULT NULL," +
		"`destination` varchar(64) DEFAULT NULL," +
		"`duration` int(8) DEFAULT '0'," +
		"`customer_id` bigint(20) DEFAULT NULL," +
		"`origin_id` bigint(20) DEFAULT NULL," +
		"`pricing_method` varchar(32) DEFAULT NULL," +
		"`call_type` varchar(32) DEFAULT NULL," +
		"`trunk_type` varchar(32) DEFAULT NULL," +
		"`currency` varchar(16) DEFAULT NULL," +
		"`minutes` int(8) DEFAULT NULL," +
		"`total` double DEFAULT NULL," +
		"PRIMARY KEY (`id`)," +
		"KEY `ownership_index` (`customer_id`,`origin_id`) USING BTREE," +
		"KEY `call_date_index` (`call_date`) USING BTREE" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;"

	return errors.Wrapf(d.db.Exec(sql).Error, "create table %s", table)
}

// LastCDRID returns the highest stored id, zero on an empty table.
func (d *Dao) LastCDRID(table string) (int64, error) {
	var id *int64
	err := d.db.Table(table).Select("MAX(id)").Scan(&id).Error
	if err != nil {
		return 0, errors.Wrapf(err, "last cdr id of %s", table)
	}
	if id == nil {
		return 0, nil
	}
	return *id, nil
}

// MultiInsertCDR writes one batch of mediated records with a single
// statement.
func (d *Dao) MultiInsertCDR(table string, records []*CallRecord) error {
	if len(records) == 0 {
		return nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, 1<<20))
	buf.WriteString("INSERT INTO `" + table + "` " +
		"(id,gateway,host,identifier,call_date,source,destination,duration) VALUES ")
	args := make([]interface{}, 0, len(records)*8)
	for i, r := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("(?,?,?,?,?,?,?,?)")
		args = append(args, r.ID, r.Gateway, r.Host, r.Identifier, r.CallDate, r.Source, r.Destination, r.Duration)
	}

	if err := d.db.Exec(buf.String(), args...).Error; err != nil {
		return errors.Wrapf(err, "insert %d records into %s", len(records), table)
	}
	log.Debugf("%5d CDRs -> '%s'", len(records), table)
	return nil
}

// ClearAnnotations unsets ownership and pricing on every record previously
// tagged with the customer id. Running it twice is a no-op, which is what
// makes full customer re-runs safe.
func (d *Dao) ClearAnnotations(table string, customerID int64) (int64, error) {
	res := d.db.Exec("UPDATE `"+table+"` SET "+
		"customer_id=NULL, origin_id=NULL, pricing_method=NULL, call_type=NULL, "+
		"trunk_type=NULL, currency=NULL, minutes=NULL, total=NULL "+
		"WHERE customer_id = ?", customerID)
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "clear annotations of customer %d", customerID)
	}
	return res.RowsAffected, nil
}

// ClearOwnership unsets only the ownership columns, for replay runs that
// re-identify but keep the persisted pricing.
func (d *Dao) ClearOwnership(table string, customerID int64) (int64, error) {
	res := d.db.Exec("UPDATE `"+table+"` SET customer_id=NULL, origin_id=NULL "+
		"WHERE customer_id = ?", customerID)
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "clear ownership of customer %d", customerID)
	}
	return res.RowsAffected, nil
}

// ClearPricing unsets only the pricing columns, for replay runs that keep
// the persisted ownership tags.
func (d *Dao) ClearPricing(table string, customerID int64) (int64, error) {
	res := d.db.Exec("UPDATE `"+table+"` SET "+
		"pricing_method=NULL, call_type=NULL, trunk_type=NULL, currency=NULL, "+
		"minutes=NULL, total=NULL "+
		"WHERE customer_id = ?", customerID)
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "clear pricing of customer %d", customerID)
	}
	return res.RowsAffected, nil
}

// TagOwnership stamps (customer, origin) onto the given record ids. When
// two origins' filters overlap the origin processed last wins, which
// mirrors how the run applies filters origin by origin.
func (d *Dao) TagOwnership(table string, ids []int64, customerID, originID int64) error {
	const chunk = 1000
	for len(ids) > 0 {
		n := len(ids)
		if n > chunk {
			n = chunk
		}
		err := d.db.Exec("UPDATE `"+table+"` SET customer_id = ?, origin_id = ? WHERE id IN ?",
			customerID, originID, ids[:n]).Error
		if err != nil {
			return errors.Wrapf(err, "tag ownership %d/%d", customerID, originID)
		}
		ids = ids[n:]
	}
	return nil
}

// WritePricing stores the pricing decision of one record.
func (d *Dao) WritePricing(table string, id int64, method, callType, trunkType, currency string, minutes int, total float64) error {
	err := d.db.Exec("UPDATE `"+table+"` SET "+
		"pricing_method = ?, call_type = ?, trunk_type = ?, currency = ?, minutes = ?, total = ? "+
		"WHERE id = ?",
		method, callType, trunkType, currency, minutes, total, id).Error
	return errors.Wrapf(err, "write pricing of record %d", id)
}

// IterateAll streams every record of the table in id order, batch by
// batch, into fn. fn returning an error stops the iteration.
func (d *Dao) IterateAll(table string, batchSize int, fn func([]CallRecord) error) error {
	lastID := int64(0)
	for {
		var batch []CallRecord
		err := d.db.Table(table).
			Where("id > ?", lastID).
			Order("id").
			Limit(batchSize).
			Find(&batch).Error
		if err != nil {
			return errors.Wrapf(err, "iterate %s", table)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		lastID = batch[len(batch)-1].ID
	}
}

// IterateOwned streams the records of one (customer, origin) in call_date
// order. Plan consumption depends on that order.
func (d *Dao) IterateOwned(table string, customerID, originID int64, batchSize int, fn func([]CallRecord) error) error {
	offset := 0
	for {
		var batch []CallRecord
		err := d.db.Table(table).
			Where("customer_id = ? AND origin_id = ?", customerID, originID).
			Order("call_date, id").
			Limit(batchSize).
			Offset(offset).
			Find(&batch).Error
		if err != nil {
			return errors.Wrapf(err, "iterate owned %d/%d", customerID, originID)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		offset += len(batch)
	}
}

// CountOwned counts the records of one (customer, origin).
func (d *Dao) CountOwned(table string, customerID, originID int64) (int64, error) {
	var n int64
	err := d.db.Table(table).
		Where("customer_id = ? AND origin_id = ?", customerID, originID).
		Count(&n).Error
	return n, errors.Wrapf(err, "count owned %d/%d", customerID, originID)
}

// CallTypeTotal is one aggregate row of an origin's invoice.
type CallTypeTotal struct {
	CallType string  `gorm:"column:call_type"`
	Currency string  `gorm:"column:currency"`
	Minutes  int64   `gorm:"column:minutes"`
	Calls    int64   `gorm:"column:calls"`
	Amount   float64 `gorm:"column:amount"`
}

// Totals aggregates the priced records of one (customer, origin) per call
// type.
func (d *Dao) Totals(table string, customerID, originID int64) ([]CallTypeTotal, error) {
	var totals []CallTypeTotal
	err := d.db.Table(table).
		Select("call_type, currency, COALESCE(SUM(minutes),0) AS minutes, COUNT(*) AS calls, COALESCE(SUM(total),0) AS amount").
		Where("customer_id = ? AND origin_id = ? AND pricing_method IS NOT NULL", customerID, originID).
		Group("call_type, currency").
		Order("call_type").
		Find(&totals).Error
	return totals, errors.Wrapf(err, "totals %d/%d", customerID, originID)
}
