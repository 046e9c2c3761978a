// Package config loads process settings from the environment and default
// form values from a YAML file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lvillar/drivepay/receipt"
)

type Config struct {
	Port             string
	Environment      string
	MaxUploadMB      int
	MergeParallelism int
	DefaultsFile     string
	AllowedOrigins   []string
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// IsProduction reports whether ENVIRONMENT is "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		MaxUploadMB:      getEnvInt("MAX_UPLOAD_MB", 50),
		MergeParallelism: getEnvInt("MERGE_PARALLELISM", 4),
		DefaultsFile:     getEnv("DEFAULTS_FILE", "drivepay.yml"),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		log.Printf("[WARNING] %s=%q is not a positive integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Defaults are the values a new form starts with.
type Defaults struct {
	SalarySlip receipt.SalarySlipInput `json:"salarySlip" yaml:"salarySlip"`
	BookBill   receipt.BookBillInput   `json:"bookBill" yaml:"bookBill"`
}

// BuiltinDefaults returns the defaults used when no defaults file exists.
// The book order date is today.
func BuiltinDefaults() *Defaults {
	fy := receipt.NewDate(2025, time.April, 1)
	return &Defaults{
		SalarySlip: receipt.SalarySlipInput{
			BillDate:           fy,
			Period:             receipt.Quarterly,
			PaymentPeriodStart: fy,
			PaymentPeriodEnd:   receipt.NewDate(2026, time.March, 31),
			StartDateFY:        fy,
			SalaryBreakdown:    []receipt.SalaryItem{{Item: "Basic Salary", Amount: 0}},
		},
		BookBill: receipt.BookBillInput{
			OrderDate:   receipt.DateOf(time.Now()),
			OrderNumber: "407-8065661-1841950",
			ShipTo: receipt.Address{
				Name:         "Siddharth Saxena",
				AddressLine1: "N 901, Great Value Sharanam",
				AddressLine2: "Sector 107",
				City:         "NOIDA",
				State:        "UTTAR PRADESH",
				ZipCode:      "201301",
				Country:      "India",
			},
			PaymentMethod: receipt.PaymentMethod{CardType: "Amazon Pay ICICI Bank Credit Card", LastFour: "4001"},
			Summary:       receipt.OrderSummary{Subtotal: 270, Shipping: 60},
			Items: []receipt.BookItem{
				{Title: "Winsar Uttarakhand Year Book 2024", Seller: "Uttarakhand Boxx Center", Price: 270},
			},
		},
	}
}

// NewSalarySlip returns a copy of the default salary slip that shares no
// memory with d.
func (d *Defaults) NewSalarySlip() receipt.SalarySlipInput {
	in := d.SalarySlip
	in.SalaryBreakdown = slices.Clone(in.SalaryBreakdown)
	in.BillNumber = clonePtr(in.BillNumber)
	in.SignatureDataURI = clonePtr(in.SignatureDataURI)
	in.StampDataURI = clonePtr(in.StampDataURI)
	return in
}

// NewBookBill returns a copy of the default book bill that shares no memory
// with d.
func (d *Defaults) NewBookBill() receipt.BookBillInput {
	in := d.BookBill
	in.Items = slices.Clone(in.Items)
	return in
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// LoadDefaults reads form defaults from a YAML file. Fields the file sets
// replace the built-in values; a missing file yields BuiltinDefaults.
func LoadDefaults(path string) (*Defaults, error) {
	d := BuiltinDefaults()
	if path == "" {
		return d, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return d, nil
}

// DecodeFile decodes a JSON or YAML file over v, chosen by extension, so
// fields the file leaves out keep the values v already holds.
func DecodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
