package store

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sheila/internal/domain"
)

// DB persists snapshots in a relational database. Each flush rewrites the
// snapshot tables inside a transaction, matching the whole-document
// semantics of the file backend.
type DB struct {
	db *gorm.DB
}

type deviceRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Kind        string `gorm:"column:kind"`
	Room        string
	IsOn        bool
	Speed       *int
	Color       string
	LastUpdated time.Time
}

func (deviceRow) TableName() string { return "devices" }

type commandRow struct {
	ID             uint `gorm:"primaryKey;autoIncrement"`
	Cmd            string
	Status         string
	Timestamp      time.Time
	ResponseTimeMs int
	Issuer         string `gorm:"column:issuer"`
	Response       string
	Result         string
}

func (commandRow) TableName() string { return "commands" }

// OpenDB connects by driver/dsn. Supported drivers: "postgres" | "mysql".
func OpenDB(driver, dsn string) (*DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if err := db.AutoMigrate(&deviceRow{}, &commandRow{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) LoadDevices() (map[string]domain.Device, error) {
	var rows []deviceRow
	if err := d.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading devices: %w", err)
	}

	devices := make(map[string]domain.Device, len(rows))
	for _, r := range rows {
		devices[r.ID] = domain.Device{
			ID:          r.ID,
			Name:        r.Name,
			Kind:        domain.DeviceKind(r.Kind),
			Room:        r.Room,
			IsOn:        r.IsOn,
			Speed:       r.Speed,
			Color:       r.Color,
			LastUpdated: r.LastUpdated,
		}
	}
	return devices, nil
}

func (d *DB) SaveDevices(devices map[string]domain.Device) error {
	rows := make([]deviceRow, 0, len(devices))
	for _, dev := range devices {
		rows = append(rows, deviceRow{
			ID:          dev.ID,
			Name:        dev.Name,
			Kind:        string(dev.Kind),
			Room:        dev.Room,
			IsOn:        dev.IsOn,
			Speed:       dev.Speed,
			Color:       dev.Color,
			LastUpdated: dev.LastUpdated,
		})
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&deviceRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("saving devices: %w", err)
	}
	return nil
}

func (d *DB) LoadCommands() ([]domain.CommandEntry, error) {
	var rows []commandRow
	if err := d.db.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading commands: %w", err)
	}

	entries := make([]domain.CommandEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.CommandEntry{
			Cmd:            r.Cmd,
			Status:         domain.CommandStatus(r.Status),
			Timestamp:      r.Timestamp,
			ResponseTimeMs: r.ResponseTimeMs,
			User:           r.Issuer,
			Response:       r.Response,
			Result:         r.Result,
		})
	}
	return entries, nil
}

func (d *DB) SaveCommands(entries []domain.CommandEntry) error {
	rows := make([]commandRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, commandRow{
			Cmd:            e.Cmd,
			Status:         string(e.Status),
			Timestamp:      e.Timestamp,
			ResponseTimeMs: e.ResponseTimeMs,
			Issuer:         e.User,
			Response:       e.Response,
			Result:         e.Result,
		})
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&commandRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("saving commands: %w", err)
	}
	return nil
}
