package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/recurrence"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrHolidayInvalid 节假日日期或文件内容无效时返回
var ErrHolidayInvalid = errors.New("invalid holiday")

// HolidayService 维护节假日日历，并向引擎提供 IsHoliday 判定
type HolidayService struct {
	db  *gorm.DB
	loc *time.Location
}

// HolidayFile 是节假日 YAML 文件的结构
//
//	holidays:
//	  - date: 2024-10-01
//	    name: 国庆节
type HolidayFile struct {
	Holidays []HolidayEntry `yaml:"holidays"`
}

// HolidayEntry 是 YAML 中的单条节假日
type HolidayEntry struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

// NewHolidayService 构造 HolidayService
func NewHolidayService(gdb *gorm.DB, loc *time.Location) *HolidayService {
	if loc == nil {
		loc = time.Local
	}
	return &HolidayService{db: gdb, loc: loc}
}

// IsHoliday 每次调用都查询数据库，不缓存结果。
// 查询失败时记录日志并按非节假日处理。
func (s *HolidayService) IsHoliday(dateKey string) bool {
	var count int64
	if err := s.db.Model(&db.Holiday{}).Where("date_key = ?", dateKey).Count(&count).Error; err != nil {
		log.Printf("[holiday] lookup %s failed: %v", dateKey, err)
		return false
	}
	return count > 0
}

// List 按日期顺序返回节假日，year 为空时返回全部
func (s *HolidayService) List(year string) ([]db.Holiday, error) {
	var holidays []db.Holiday

	query := s.db.Model(&db.Holiday{})
	if year = strings.TrimSpace(year); year != "" {
		query = query.Where("date_key LIKE ?", year+"-%")
	}

	if err := query.Order("date_key ASC").Find(&holidays).Error; err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// Upsert 新增或更新节假日名称
func (s *HolidayService) Upsert(date, name string) (*db.Holiday, error) {
	return s.upsert(s.db, date, name)
}

func (s *HolidayService) upsert(tx *gorm.DB, date, name string) (*db.Holiday, error) {
	day, ok := recurrence.ParseDate(date, s.loc)
	if !ok {
		return nil, fmt.Errorf("%w: date %q", ErrHolidayInvalid, date)
	}

	record := db.Holiday{DateKey: recurrence.DayKey(day), Name: strings.TrimSpace(name)}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert holiday: %w", err)
	}

	if err := tx.Where("date_key = ?", record.DateKey).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload holiday: %w", err)
	}
	return &record, nil
}

// Delete 删除指定日期的节假日
func (s *HolidayService) Delete(date string) error {
	day, ok := recurrence.ParseDate(date, s.loc)
	if !ok {
		return fmt.Errorf("%w: date %q", ErrHolidayInvalid, date)
	}
	if err := s.db.Where("date_key = ?", recurrence.DayKey(day)).Delete(&db.Holiday{}).Error; err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return nil
}

// ImportYAML 从 YAML 读取节假日并整体写入，任何一条无效则全部回滚
func (s *HolidayService) ImportYAML(r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read holidays: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return 0, fmt.Errorf("%w: holiday payload is empty", ErrHolidayInvalid)
	}

	var file HolidayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", ErrHolidayInvalid, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range file.Holidays {
			if _, err := s.upsert(tx, entry.Date, entry.Name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(file.Holidays), nil
}

// ImportFile 读取磁盘上的节假日文件
func (s *HolidayService) ImportFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open holidays %s: %w", path, err)
	}
	defer f.Close()

	n, err := s.ImportYAML(f)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", path, err)
	}
	return n, nil
}
