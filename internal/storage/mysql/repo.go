package mysql

import (
	"context"
	"database/sql"
	"errors"

	gomysql "github.com/go-sql-driver/mysql"

	"hotel_pms/internal/domain"
)

var _ domain.Store = (*Repo)(nil)

const errDuplicateEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptrNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func isDuplicate(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type scanner interface{ Scan(dest ...any) error }

func scanHotel(row scanner) (domain.Hotel, error) {
	var h domain.Hotel
	err := row.Scan(&h.ID, &h.Name, &h.City, &h.PMSVendor, &h.PMSHotelID)
	return h, err
}

func scanGuest(row scanner) (domain.Guest, error) {
	var g domain.Guest
	var name, phone, country, lang sql.NullString
	if err := row.Scan(&g.ID, &name, &phone, &country, &lang); err != nil {
		return domain.Guest{}, err
	}
	g.Name, g.Phone, g.Country, g.Language = ptrNull(name), ptrNull(phone), ptrNull(country), ptrNull(lang)
	return g, nil
}

func scanStay(row scanner) (domain.Stay, error) {
	var s domain.Stay
	var status string
	var room sql.NullInt64
	if err := row.Scan(&s.ID, &s.HotelID, &s.GuestID, &s.PMSReservationID, &s.PMSGuestID,
		&status, &s.PMSStatus, &s.CheckIn, &s.CheckOut, &room); err != nil {
		return domain.Stay{}, err
	}
	s.Status = domain.StayStatus(status)
	if room.Valid {
		r := int(room.Int64)
		s.RoomNumber = &r
	}
	return s, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	return h, notFound(err)
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) GetGuest(ctx context.Context, id int64) (domain.Guest, error) {
	g, err := scanGuest(r.db.QueryRowContext(ctx, getGuestSQL, id))
	return g, notFound(err)
}

func (r *Repo) FindGuestByPhone(ctx context.Context, phone string) (domain.Guest, error) {
	g, err := scanGuest(r.db.QueryRowContext(ctx, findGuestByPhoneSQL, phone))
	return g, notFound(err)
}

func (r *Repo) GetStay(ctx context.Context, id int64) (domain.Stay, error) {
	s, err := scanStay(r.db.QueryRowContext(ctx, getStaySQL, id))
	return s, notFound(err)
}

func (r *Repo) FindStay(ctx context.Context, hotelID int64, reservationID string) (domain.Stay, error) {
	s, err := scanStay(r.db.QueryRowContext(ctx, findStaySQL, hotelID, reservationID))
	return s, notFound(err)
}

func (r *Repo) ListHotelGuests(ctx context.Context, hotelID int64) ([]domain.Guest, error) {
	rows, err := r.db.QueryContext(ctx, listHotelGuestsSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ApplyBatch writes the whole batch in one transaction; on any error the
// transaction is rolled back and nothing is visible.
func (r *Repo) ApplyBatch(ctx context.Context, b domain.BatchWrite) (domain.Counts, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Counts{}, &domain.PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback() // no-op after commit

	var c domain.Counts
	ids := make(map[string]int64, len(b.Guests))

	for _, gw := range b.Guests {
		id, created, updated, err := writeGuest(ctx, tx, gw)
		if err != nil {
			return domain.Counts{}, &domain.PersistenceError{Op: "write guest " + gw.Key, Err: err}
		}
		ids[gw.Key] = id
		if created {
			c.GuestsCreated++
		} else if updated {
			c.GuestsUpdated++
		}
	}

	for _, sw := range b.Stays {
		guestID, ok := ids[sw.GuestKey]
		if !ok {
			return domain.Counts{}, &domain.PersistenceError{Op: "write stay " + sw.PMSReservationID, Err: errors.New("unknown guest key " + sw.GuestKey)}
		}
		res, err := tx.ExecContext(ctx, upsertStaySQL,
			sw.HotelID,
			guestID,
			sw.PMSReservationID,
			sw.PMSGuestID,
			string(sw.Status),
			sw.PMSStatus,
			sw.CheckIn,
			sw.CheckOut,
			valInt(sw.RoomNumber),
		)
		if err != nil {
			return domain.Counts{}, &domain.PersistenceError{Op: "write stay " + sw.PMSReservationID, Err: err}
		}
		// 1 = inserted, 2 = updated, 0 = unchanged
		switch n, _ := res.RowsAffected(); n {
		case 1:
			c.StaysCreated++
		case 2:
			c.StaysUpdated++
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Counts{}, &domain.PersistenceError{Op: "commit", Err: err}
	}
	return c, nil
}

func writeGuest(ctx context.Context, tx *sql.Tx, gw domain.GuestWrite) (id int64, created, updated bool, err error) {
	if gw.ExistingID != 0 {
		res, err := tx.ExecContext(ctx, updateGuestSQL,
			valStr(gw.Name), valStr(gw.Phone), valStr(gw.Country), valStr(gw.Language), gw.ExistingID)
		switch {
		case err == nil:
			n, _ := res.RowsAffected()
			return gw.ExistingID, false, n > 0, nil
		case !isDuplicate(err) || gw.Phone == nil:
			return 0, false, false, err
		}
		// another writer owns the phone now; merge into that row instead
	}

	q := insertGuestSQL
	if gw.Phone != nil {
		q = upsertGuestByPhoneSQL
	}
	res, err := tx.ExecContext(ctx, q, valStr(gw.Name), valStr(gw.Phone), valStr(gw.Country), valStr(gw.Language))
	if err != nil {
		return 0, false, false, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, false, err
	}
	n, _ := res.RowsAffected()
	return id, n == 1, n == 2, nil
}
