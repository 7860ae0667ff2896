package message

// message composes e-mail. A Builder collects the content of a single
// message, each optional field at most once, and Build turns it into an
// immutable Message. The Message knows how to write itself out as an
// RFC 5322 document, which is what every transport sends. Transports
// themselves live in the email, ses and spool packages.
