package sqlinline

// SQLite dialect of the session queries. The marker line is a plain SQL
// comment to SQLite and is sent as-is.

const QCreateSessionValuesSQLite = `--sql acfa9916-eaa7-4d48-b61c-6df3056fe5ed
create table if not exists session_values (
    key text primary key,
    value text not null,
    updated_at integer not null
);
`

const QSelectSessionValueSQLite = `--sql 41ca1a6b-9447-49df-b320-fbb8435e6c05
select value from session_values where key = ?;
`

const QUpsertSessionValueSQLite = `--sql 112f44a1-bdb6-4b94-bdf9-a8558b5a3c37
insert into session_values (key, value, updated_at) values (?, ?, ?)
on conflict(key) do update set
    value = excluded.value,
    updated_at = excluded.updated_at;
`

const QDeleteSessionValueSQLite = `--sql 2608d77e-38ef-43cd-8940-fcfe037205ff
delete from session_values where key = ?;
`
