package errors

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump is an error chain flattened for one log line. Driver details
// are lifted out so a constraint failure can be found without the stack.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	Driver     *DriverDetail
}

// DriverDetail is the database-side view of a failed statement.
type DriverDetail struct {
	Driver     string
	Code       string
	Constraint string
	Table      string
	Detail     string
	Message    string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error(), Code: As(err).codeOr(""), Driver: driverDetail(err)}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}

func driverDetail(err error) *DriverDetail {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &DriverDetail{Driver: "pgx", Code: pgxErr.Code, Constraint: pgxErr.ConstraintName, Table: pgxErr.TableName, Detail: pgxErr.Detail, Message: pgxErr.Message}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &DriverDetail{Driver: "pq", Code: string(pqErr.Code), Constraint: pqErr.Constraint, Table: pqErr.Table, Detail: pqErr.Detail, Message: pqErr.Message}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return &DriverDetail{Driver: "sqlite3", Code: strconv.Itoa(int(liteErr.ExtendedCode)), Message: liteErr.Error()}
	}
	return nil
}

// Fields renders the dump as logger fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if dd := d.Driver; dd != nil {
		fields["db_driver"] = dd.Driver
		fields["db_code"] = dd.Code
		fields["db_message"] = dd.Message
		for key, v := range map[string]string{"db_constraint": dd.Constraint, "db_table": dd.Table, "db_detail": dd.Detail} {
			if v != "" {
				fields[key] = v
			}
		}
	}
	return fields
}
