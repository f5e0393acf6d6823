// Package backend is the REST client for the record collection that stores
// listings and booking requests.
//
// Endpoints:
//
//	GET    /listings
//	GET    /listings/{id}
//	POST   /listings                      -> {"insertedId": ...}
//	PUT    /listings/{id}                 -> {"matchedCount": n, "modifiedCount": n}
//	DELETE /listings/{id}                 -> {"deletedCount": n}
//	GET    /listings/by-owner/{email}
//	POST   /bookings                      -> {"insertedId": ...}
//	GET    /bookings/by-requester/{email}
//
// Every mutation is checked against its acknowledgement; a 2xx without the
// expected ack is treated as a rejection. All calls run through a circuit
// breaker so a dead backend fails fast instead of hanging every command.
package backend
