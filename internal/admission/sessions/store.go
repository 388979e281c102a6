// internal/admission/sessions/store.go
package sessions

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"

	"training-admissions/internal/common/errors"
	"training-admissions/internal/models"
)

// Loader returns the typed session projection used by fee and validation workers.
type Loader interface {
	Get(ctx context.Context, sessionID string) (*models.TrainingSessionView, error)
}

// Store reads training sessions and their enrollments from Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const sessionQuery = `
	SELECT s.id, s.program_id, s.start_date, s.end_date, s.mode, s.venue,
	       s.on_premise_slots, s.online_slots, s.on_premise_slots_taken, s.online_slots_taken,
	       s.usd_charged,
	       s.citizen_fee, s.east_africa_fee, s.global_participant_fee,
	       s.citizen_online_fee, s.east_africa_online_fee, s.global_participant_online_fee,
	       s.usd_citizen_fee, s.usd_east_africa_fee, s.usd_global_participant_fee,
	       s.usd_citizen_online_fee, s.usd_east_africa_online_fee, s.usd_global_participant_online_fee,
	       p.title, p.code
	FROM training_sessions s
	JOIN programs p ON p.id = s.program_id
	WHERE s.id = $1`

// Get loads one session with its program columns.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.TrainingSessionView, error) {
	var (
		v     models.TrainingSessionView
		rates [12]sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, sessionQuery, sessionID).Scan(
		&v.ID, &v.ProgramID, &v.StartDate, &v.EndDate, &v.Mode, &v.Venue,
		&v.OnPremiseCapacity, &v.OnlineCapacity, &v.OnPremiseSlotsTaken, &v.OnlineSlotsTaken,
		&v.UsdCharged,
		&rates[0], &rates[1], &rates[2],
		&rates[3], &rates[4], &rates[5],
		&rates[6], &rates[7], &rates[8],
		&rates[9], &rates[10], &rates[11],
		&v.ProgramTitle, &v.ProgramCode,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewTrainingSessionNotFoundError(sessionID)
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError("training_session")
		}
		return nil, errors.NewQueryExecutionFailedError("training_session", err)
	}

	v.Rates = models.FeeRates{
		CitizenFee:                    nullFloat(rates[0]),
		EastAfricaFee:                 nullFloat(rates[1]),
		GlobalParticipantFee:          nullFloat(rates[2]),
		CitizenOnlineFee:              nullFloat(rates[3]),
		EastAfricaOnlineFee:           nullFloat(rates[4]),
		GlobalParticipantOnlineFee:    nullFloat(rates[5]),
		UsdCitizenFee:                 nullFloat(rates[6]),
		UsdEastAfricaFee:              nullFloat(rates[7]),
		UsdGlobalParticipantFee:       nullFloat(rates[8]),
		UsdCitizenOnlineFee:           nullFloat(rates[9]),
		UsdEastAfricaOnlineFee:        nullFloat(rates[10]),
		UsdGlobalParticipantOnlineFee: nullFloat(rates[11]),
	}
	return &v, nil
}

const enrolledQuery = `
	SELECT ap.application_id, a.training_session_id, ap.name, ap.email
	FROM application_participants ap
	JOIN applications a ON a.id = ap.application_id
	WHERE a.training_session_id = $1 AND LOWER(ap.email) = ANY($2)`

// Queryer is satisfied by *sql.DB and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Enrolled returns the participants of sessionID whose email is in emails.
// Emails must already be normalised to lower case.
func (s *Store) Enrolled(ctx context.Context, sessionID string, emails []string) ([]models.EnrolledParticipant, error) {
	return Enrolled(ctx, s.db, sessionID, emails)
}

// Enrolled runs the enrollment lookup on q, which lets a caller check
// duplicates inside its own transaction.
func Enrolled(ctx context.Context, q Queryer, sessionID string, emails []string) ([]models.EnrolledParticipant, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, enrolledQuery, sessionID, pq.Array(emails))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("enrolled_participants", err)
	}
	defer rows.Close()

	var out []models.EnrolledParticipant
	for rows.Next() {
		var e models.EnrolledParticipant
		if err := rows.Scan(&e.ApplicationID, &e.TrainingSessionID, &e.Name, &e.Email); err != nil {
			return nil, errors.NewQueryExecutionFailedError("enrolled_participants", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("enrolled_participants", err)
	}
	return out, nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}
