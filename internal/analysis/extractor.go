// Package analysis turns the loaded tables into the in-memory analysis
// table: one join-and-filter query, then per-row derivation of the mean
// objective score and the income-group label.
package analysis

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

// ExtractService implements the enemgap.Extractor interface.
//
// Thread-Safety: safe for concurrent Extract() calls; all state is per-call.
type ExtractService struct {
	logger enemgap.Logger
}

// NewExtractService creates an ExtractService.
//
// Panics if logger is nil (programmer error).
func NewExtractService(logger enemgap.Logger) *ExtractService {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ExtractService{logger: logger}
}

// analysisQuery joins participants to results on the registration number
// and restricts to the two analyzed income brackets. Table names come from
// config and are quoted; column names are the fixed INEP microdata names.
func analysisQuery(config enemgap.PipelineConfig) string {
	registration := pgx.Identifier{config.RegistrationColumn}.Sanitize()
	return fmt.Sprintf(`
		SELECT p."Q006", p."TP_SEXO", p."TP_COR_RACA", p."SG_UF_PROVA",
		       r."NU_NOTA_CN", r."NU_NOTA_CH", r."NU_NOTA_LC", r."NU_NOTA_MT", r."NU_NOTA_REDACAO"
		FROM %s p
		JOIN %s r ON p.%s = r.%s
		WHERE p."Q006" IN ('A', 'B')`,
		pgx.Identifier{config.ParticipantsTable}.Sanitize(),
		pgx.Identifier{config.ResultsTable}.Sanitize(),
		registration, registration,
	)
}

// Extract runs the analysis query and builds the AnalysisTable. Rows with
// any missing score are dropped; the rest get the derived mean objective
// score and income-group label. Query or scan failures abort the run.
func (s *ExtractService) Extract(ctx context.Context, conn enemgap.DBConnection, config enemgap.PipelineConfig) (*enemgap.AnalysisTable, error) {
	if config.RegistrationColumn == "" {
		config.RegistrationColumn = enemgap.DefaultRegistrationColumn
	}

	s.logger.Info("Extracting analysis rows (income brackets A and B)")

	rows, err := conn.Query(ctx, analysisQuery(config))
	if err != nil {
		return nil, fmt.Errorf("%w: analysis query: %w", enemgap.ErrExecutionFailed, err)
	}
	defer rows.Close()

	table := &enemgap.AnalysisTable{}
	for rows.Next() {
		// Demographics may be absent in the microdata; scores decide
		// whether the row is kept at all. The WHERE clause guarantees a
		// non-null income code.
		var (
			incomeCode string
			sex        *string
			race       *float64
			state      *string
			cn, ch     *float64
			lc, mt     *float64
			essay      *float64
		)
		if err := rows.Scan(&incomeCode, &sex, &race, &state, &cn, &ch, &lc, &mt, &essay); err != nil {
			return nil, fmt.Errorf("%w: scanning analysis row: %w", enemgap.ErrExecutionFailed, err)
		}
		table.Extracted++

		if cn == nil || ch == nil || lc == nil || mt == nil || essay == nil {
			continue
		}
		group, ok := enemgap.IncomeGroupForCode(incomeCode)
		if !ok {
			return nil, fmt.Errorf("%w: income code %q outside the filtered brackets", enemgap.ErrExecutionFailed, incomeCode)
		}

		row := enemgap.AnalysisRow{
			IncomeCode:         incomeCode,
			IncomeGroup:        group,
			ScienceScore:       *cn,
			HumanitiesScore:    *ch,
			LanguageScore:      *lc,
			MathScore:          *mt,
			EssayScore:         *essay,
			MeanObjectiveScore: (*cn + *ch + *lc + *mt) / 4,
		}
		if sex != nil {
			row.Sex = *sex
		}
		if race != nil {
			row.RaceCode = int64(*race)
		}
		if state != nil {
			row.State = *state
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading analysis rows: %w", enemgap.ErrExecutionFailed, err)
	}

	s.logger.Info("✓ Extracted %d rows (%d dropped for missing scores)", table.Len(), table.Dropped())
	return table, nil
}

// Verify ExtractService implements the Extractor interface at compile time
var _ enemgap.Extractor = (*ExtractService)(nil)
