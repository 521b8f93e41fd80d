package mysql

// A guest with a phone goes through the unique key: a concurrent insert of
// the same phone turns into a merge. COALESCE keeps the old value when the
// new one is NULL. LAST_INSERT_ID(id) makes the row id available either way.
const upsertGuestByPhoneSQL = `
INSERT INTO guests (name, phone, country, language)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  id       = LAST_INSERT_ID(id),
  name     = COALESCE(VALUES(name), name),
  country  = COALESCE(VALUES(country), country),
  language = COALESCE(VALUES(language), language)
`

const insertGuestSQL = `
INSERT INTO guests (name, phone, country, language)
VALUES (?, ?, ?, ?)
`

const updateGuestSQL = `
UPDATE guests SET
  name     = COALESCE(?, name),
  phone    = COALESCE(?, phone),
  country  = COALESCE(?, country),
  language = COALESCE(?, language)
WHERE id = ?
`

const upsertStaySQL = `
INSERT INTO stays
  (hotel_id, guest_id, pms_reservation_id, pms_guest_id, status, pms_status, checkin, checkout, room_number)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  id           = LAST_INSERT_ID(id),
  guest_id     = VALUES(guest_id),
  pms_guest_id = IF(VALUES(pms_guest_id) = '', pms_guest_id, VALUES(pms_guest_id)),
  status       = VALUES(status),
  pms_status   = VALUES(pms_status),
  checkin      = VALUES(checkin),
  checkout     = VALUES(checkout),
  room_number  = COALESCE(VALUES(room_number), room_number)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const hotelColumns = `id, name, city, pms_vendor, pms_hotel_id`

const guestColumns = `id, name, phone, country, language`

const stayColumns = `id, hotel_id, guest_id, pms_reservation_id, pms_guest_id, status, pms_status, checkin, checkout, room_number`

const getHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`

const listHotelsSQL = `SELECT ` + hotelColumns + ` FROM hotels ORDER BY id`

const getGuestSQL = `SELECT ` + guestColumns + ` FROM guests WHERE id = ?`

const findGuestByPhoneSQL = `SELECT ` + guestColumns + ` FROM guests WHERE phone = ?`

const getStaySQL = `SELECT ` + stayColumns + ` FROM stays WHERE id = ?`

const findStaySQL = `SELECT ` + stayColumns + ` FROM stays WHERE hotel_id = ? AND pms_reservation_id = ?`

const listHotelGuestsSQL = `
SELECT DISTINCT g.id, g.name, g.phone, g.country, g.language
FROM guests g
JOIN stays s ON s.guest_id = g.id
WHERE s.hotel_id = ?
ORDER BY g.id
`
