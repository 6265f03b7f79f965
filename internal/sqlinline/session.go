package sqlinline

const QCreateSessionValues = `--sql 65817a0a-5847-4934-b71d-4ed139e7d2aa
create table if not exists session_values (
    namespace text not null,
    key text not null,
    value text not null,
    updated_at timestamptz not null default now(),
    primary key (namespace, key)
);
`

const QSelectSessionValue = `--sql ee9e429b-ed98-4d77-967f-6f162b9d58e5
select value
from session_values
where namespace = $1::text and key = $2::text
limit 1;
`

const QUpsertSessionValue = `--sql 13a5ce03-3ea4-4a5a-adaa-146d45348197
insert into session_values (namespace, key, value, updated_at)
values ($1::text, $2::text, $3::text, now())
on conflict (namespace, key) do update set
    value = excluded.value,
    updated_at = now();
`

const QDeleteSessionValue = `--sql 703702c7-57c7-4161-9df7-80857fd44533
delete from session_values
where namespace = $1::text and key = $2::text;
`
