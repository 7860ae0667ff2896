package address

// address parses and represents single e-mail mailboxes. Address is the
// mutable working copy a caller builds; ReadOnly is the frozen snapshot the
// message package stores. Code that needs to know whether it may change an
// address it was handed asks Writer rather than attempting the change.
