// Package student holds the admission register and the per-student read
// models built around it.
//
// # Entities
//
//   - Admission: one row per admitted student, keyed by FCC ID.
//   - Profile: an admission plus the student's photo URL.
//   - Skill: a skill assessment, with defaults filled for missing columns.
//   - TuitionFee: the fee plan and outstanding balance.
//
// # Updates
//
// Admissions are mutated through Update, a per-field patch. Absent fields are
// left untouched; a present PaymentStatus is written to the student's payments
// inside the same transaction as the admission fields.
//
// # Photos
//
// Photo URLs are not stored in the database. They come from a PhotoLookup
// supplied by the caller, so the directory can be swapped without touching
// the domain.
package student
