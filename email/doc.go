package email

// email is responsible for handing composed messages to a mail transport.
// Sender turns ConnectionSettings into a Session and asks a Transport to
// deliver a Message over it. The SMTP transport here connects to a relay,
// negotiates TLS and authentication, and streams the message built by the
// message package. It is not designed to interpret the content of what it
// sends, and doesn't retry, pool connections or read SMTP reply codes.
