// Package printing turns invoices into printable documents.
//
// DocumentRenderer fills the embedded English (left-to-right) or Arabic
// (right-to-left) HTML layout, optionally embedding the compliance QR code as a
// PNG data URI. ChromedpRenderer prints that HTML to an A4 PDF with headless
// Chrome.
package printing
