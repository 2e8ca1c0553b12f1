package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/scrape"
	"github.com/hkpeprah/jerbminer/lib/timezone"

	_ "embed"

	_ "modernc.org/sqlite"
)

var ErrJobNotFound = fmt.Errorf("No job with that id exists.")

// CloseDateFormat is the date layout the portal renders application
// deadlines in.
const CloseDateFormat = "02-Jan-2006"

//go:embed schema.sql
var Schema string

type Job struct {
	Id          int64
	Title       string
	Employer    string
	Description string
	Location    string
	Applied     bool
	Closes      time.Time
}

// FromListing builds a Job out of a scraped listing row and the
// corresponding job detail. A listing with no deadline gets the zero
// time.
func FromListing(listing, detail *scrape.Record) (Job, error) {
	// search rows label the id column "Job Identifier", application
	// rows label it "Job ID"
	raw := listing.Get("Job ID")
	if raw == "" {
		raw = listing.Get("Job Identifier")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Job{}, fmt.Errorf("listing has no usable job id: %w", err)
	}

	var closes time.Time
	if raw := listing.Get("Last Day to Apply"); raw != "" {
		closes, err = time.ParseInLocation(CloseDateFormat, raw, timezone.Location)
		if err != nil {
			return Job{}, fmt.Errorf("malformed application deadline %q: %w", raw, err)
		}
	}

	return Job{
		Id:          id,
		Title:       listing.Get("Job Title"),
		Employer:    listing.Get("Employer"),
		Description: detail.Get("Description"),
		Location:    listing.Get("Work Location"),
		Closes:      closes,
	}, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens (creating if needed) the sqlite database at path and
// applies the schema.
func Open(path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) Put(ctx context.Context, job Job) error {
	_, err := s.db.ExecContext(ctx, `
insert into jobs (id, title, employer, description, location, applied, closes)
values (?, ?, ?, ?, ?, ?, ?)
on conflict (id) do update set
    title = excluded.title,
    employer = excluded.employer,
    description = excluded.description,
    location = excluded.location,
    applied = excluded.applied,
    closes = excluded.closes`,
		job.Id, job.Title, job.Employer, job.Description,
		job.Location, job.Applied, job.Closes.Unix())
	return err
}

func scanJob(row interface{ Scan(...any) error }) (Job, error) {
	var job Job
	var closes int64
	err := row.Scan(&job.Id, &job.Title, &job.Employer, &job.Description,
		&job.Location, &job.Applied, &closes)
	if err != nil {
		return Job{}, err
	}
	job.Closes = time.Unix(closes, 0).In(timezone.Location)
	return job, nil
}

func (s Store) Get(ctx context.Context, id int64) (Job, error) {
	row := s.db.QueryRowContext(ctx, `
select id, title, employer, description, location, applied, closes
from jobs where id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrJobNotFound
	}
	return job, err
}

func (s Store) List(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
select id, title, employer, description, location, applied, closes
from jobs order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from jobs where id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s Store) MarkApplied(ctx context.Context, id int64, applied bool) error {
	res, err := s.db.ExecContext(ctx, `update jobs set applied = ? where id = ?`, applied, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}
