package kbtest

const enterpriseJSON = `{
  "type": "bundle",
  "id": "bundle--enterprise-fixture",
  "objects": [
    {
      "type": "x-mitre-tactic",
      "id": "x-mitre-tactic--execution",
      "name": "Execution",
      "description": "The adversary is trying to run malicious code.",
      "x_mitre_shortname": "execution",
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "TA0002"}
      ]
    },
    {
      "type": "x-mitre-tactic",
      "id": "x-mitre-tactic--privilege-escalation",
      "name": "Privilege Escalation",
      "description": "The adversary is trying to gain higher-level permissions.",
      "x_mitre_shortname": "privilege-escalation",
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "TA0004"}
      ]
    },
    {
      "type": "x-mitre-tactic",
      "id": "x-mitre-tactic--defense-evasion",
      "name": "Defense Evasion",
      "description": "The adversary is trying to avoid being detected.",
      "x_mitre_shortname": "defense-evasion",
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "TA0005"}
      ]
    },
    {
      "type": "x-mitre-matrix",
      "id": "x-mitre-matrix--enterprise",
      "name": "Enterprise ATT&CK",
      "description": "The enterprise technology domain.",
      "tactic_refs": [
        "x-mitre-tactic--execution",
        "x-mitre-tactic--privilege-escalation",
        "x-mitre-tactic--defense-evasion"
      ],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "enterprise-attack"}
      ]
    },
    {
      "type": "attack-pattern",
      "id": "attack-pattern--t1055",
      "name": "Process Injection",
      "description": "Adversaries may inject code into processes in order to evade process-based defenses.",
      "created": "2017-05-31T21:30:47.843Z",
      "modified": "2023-03-30T21:01:36.000Z",
      "x_mitre_platforms": ["Windows", "Linux", "macOS"],
      "kill_chain_phases": [
        {"kill_chain_name": "mitre-attack", "phase_name": "defense-evasion"},
        {"kill_chain_name": "mitre-attack", "phase_name": "privilege-escalation"}
      ],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "T1055"}
      ]
    },
    {
      "type": "attack-pattern",
      "id": "attack-pattern--t1055-001",
      "name": "Dynamic-link Library Injection",
      "description": "Adversaries may inject dynamic-link libraries (DLLs) into processes.",
      "created": "2020-01-14T17:18:32.126Z",
      "modified": "2023-03-30T21:01:36.000Z",
      "x_mitre_is_subtechnique": true,
      "x_mitre_platforms": ["Windows"],
      "kill_chain_phases": [
        {"kill_chain_name": "mitre-attack", "phase_name": "defense-evasion"},
        {"kill_chain_name": "mitre-attack", "phase_name": "privilege-escalation"}
      ],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "T1055.001"}
      ]
    },
    {
      "type": "attack-pattern",
      "id": "attack-pattern--t1059",
      "name": "Command and Scripting Interpreter",
      "description": "Adversaries may abuse command and script interpreters to execute commands.",
      "created": "2017-05-31T21:30:49.546Z",
      "modified": "2024-04-01T12:00:00.000Z",
      "x_mitre_platforms": ["Windows", "Linux", "macOS"],
      "kill_chain_phases": [
        {"kill_chain_name": "mitre-attack", "phase_name": "execution"}
      ],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "T1059"}
      ]
    },
    {
      "type": "attack-pattern",
      "id": "attack-pattern--t1078",
      "name": "Valid Accounts",
      "description": "Adversaries may obtain and abuse credentials of existing accounts.",
      "created": "2017-05-31T21:31:00.645Z",
      "modified": "2019-06-01T09:30:00.000Z",
      "x_mitre_platforms": ["Windows"],
      "kill_chain_phases": [
        {"kill_chain_name": "mitre-attack", "phase_name": "defense-evasion"}
      ],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "T1078"}
      ]
    },
    {
      "type": "attack-pattern",
      "id": "attack-pattern--t1086",
      "name": "PowerShell",
      "description": "Adversaries may use PowerShell commands and scripts for execution.",
      "created": "2017-05-31T21:31:04.307Z",
      "modified": "2020-01-24T13:40:00.000Z",
      "revoked": true,
      "x_mitre_platforms": ["Windows"],
      "kill_chain_phases": [
        {"kill_chain_name": "mitre-attack", "phase_name": "execution"}
      ],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "T1086"}
      ]
    },
    {
      "type": "intrusion-set",
      "id": "intrusion-set--apt28",
      "name": "APT28",
      "description": "APT28 is a threat group attributed to a military intelligence agency.",
      "created": "2017-05-31T21:31:48.664Z",
      "modified": "2024-01-10T18:42:13.000Z",
      "aliases": ["APT28", "Fancy Bear", "Sofacy"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "G0007"}
      ]
    },
    {
      "type": "intrusion-set",
      "id": "intrusion-set--wizard",
      "name": "Wizard Spider",
      "description": "Wizard Spider is a financially motivated criminal group.",
      "created": "2020-05-12T18:15:29.396Z",
      "modified": "2024-02-20T10:05:00.000Z",
      "aliases": ["Wizard Spider", "GOLD BLACKBURN"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "G0102"}
      ]
    },
    {
      "type": "intrusion-set",
      "id": "intrusion-set--oldbear",
      "name": "Iron Bear",
      "description": "Superseded tracking of activity now attributed to APT28.",
      "created": "2017-05-31T21:31:52.748Z",
      "modified": "2019-03-22T14:21:19.000Z",
      "revoked": true,
      "aliases": ["Iron Bear", "Fancy Bear"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "G0099"}
      ]
    },
    {
      "type": "intrusion-set",
      "id": "intrusion-set--muddy",
      "name": "MuddyWater",
      "description": "MuddyWater is a cyber espionage group.",
      "created": "2018-04-18T17:59:24.739Z",
      "modified": "2023-10-04T12:30:00.000Z",
      "aliases": ["MuddyWater", "TEMP.Zagros"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "G0069"}
      ]
    },
    {
      "type": "intrusion-set",
      "id": "intrusion-set--vetala",
      "name": "Earth Vetala",
      "description": "Earth Vetala is an activity cluster overlapping MuddyWater operations.",
      "created": "2021-06-16T19:04:40.310Z",
      "modified": "2023-09-12T08:10:00.000Z",
      "aliases": ["Earth Vetala", "TEMP.Zagros"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "G0140"}
      ]
    },
    {
      "type": "malware",
      "id": "malware--xagent",
      "name": "X-Agent",
      "description": "X-Agent is a cross-platform remote access tool.",
      "created": "2017-05-31T21:32:15.263Z",
      "modified": "2023-04-12T15:00:00.000Z",
      "x_mitre_aliases": ["X-Agent", "CHOPSTICK"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "S0023"}
      ]
    },
    {
      "type": "tool",
      "id": "tool--cobalt",
      "name": "Cobalt Strike",
      "description": "Cobalt Strike is a commercial adversary simulation platform.",
      "created": "2017-12-14T16:46:06.044Z",
      "modified": "2024-03-01T11:11:11.000Z",
      "x_mitre_aliases": ["Cobalt Strike"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "S0154"}
      ]
    },
    {
      "type": "campaign",
      "id": "campaign--solarstorm",
      "name": "SolarStorm",
      "description": "SolarStorm was an intrusion campaign against managed service providers.",
      "created": "2022-09-29T20:30:00.000Z",
      "modified": "2023-11-08T16:45:00.000Z",
      "aliases": ["SolarStorm"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "C0024"}
      ]
    },
    {
      "type": "course-of-action",
      "id": "course-of-action--behavior-prevention",
      "name": "Behavior Prevention on Endpoint",
      "description": "Use capabilities to prevent suspicious behavior patterns from occurring on endpoint systems.",
      "created": "2019-06-11T16:43:05.712Z",
      "modified": "2022-04-19T23:03:54.000Z",
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "M1040"}
      ]
    },
    {
      "type": "x-mitre-data-source",
      "id": "x-mitre-data-source--process",
      "name": "Process",
      "description": "Instances of computer programs that are being executed.",
      "created": "2021-10-20T15:05:19.274Z",
      "modified": "2023-04-20T18:38:13.000Z",
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "DS0009"}
      ]
    },
    {
      "type": "x-mitre-data-component",
      "id": "x-mitre-data-component--process-creation",
      "name": "Process Creation",
      "description": "The initial construction of an executable managed by the OS.",
      "created": "2021-10-20T15:05:19.274Z",
      "modified": "2022-10-07T16:15:56.000Z",
      "x_mitre_data_source_ref": "x-mitre-data-source--process"
    },
    {
      "type": "relationship",
      "id": "relationship--sub-t1055-001",
      "relationship_type": "subtechnique-of",
      "source_ref": "attack-pattern--t1055-001",
      "target_ref": "attack-pattern--t1055"
    },
    {
      "type": "relationship",
      "id": "relationship--t1086-revoked-by",
      "relationship_type": "revoked-by",
      "source_ref": "attack-pattern--t1086",
      "target_ref": "attack-pattern--t1059"
    },
    {
      "type": "relationship",
      "id": "relationship--apt28-uses-t1055",
      "relationship_type": "uses",
      "source_ref": "intrusion-set--apt28",
      "target_ref": "attack-pattern--t1055",
      "description": "APT28 has injected code into the lsass.exe process to collect credentials."
    },
    {
      "type": "relationship",
      "id": "relationship--apt28-uses-xagent",
      "relationship_type": "uses",
      "source_ref": "intrusion-set--apt28",
      "target_ref": "malware--xagent",
      "description": "APT28 has used X-Agent implants on victim hosts."
    },
    {
      "type": "relationship",
      "id": "relationship--xagent-uses-t1059",
      "relationship_type": "uses",
      "source_ref": "malware--xagent",
      "target_ref": "attack-pattern--t1059",
      "description": "X-Agent executes operator commands through a command shell."
    },
    {
      "type": "relationship",
      "id": "relationship--wizard-uses-t1059",
      "relationship_type": "uses",
      "source_ref": "intrusion-set--wizard",
      "target_ref": "attack-pattern--t1059",
      "description": "Wizard Spider has used PowerShell and batch scripts across victim networks."
    },
    {
      "type": "relationship",
      "id": "relationship--wizard-uses-t1078",
      "relationship_type": "uses",
      "source_ref": "intrusion-set--wizard",
      "target_ref": "attack-pattern--t1078",
      "description": "Wizard Spider has used stolen domain administrator accounts for lateral movement."
    },
    {
      "type": "relationship",
      "id": "relationship--solarstorm-attributed-wizard",
      "relationship_type": "attributed-to",
      "source_ref": "campaign--solarstorm",
      "target_ref": "intrusion-set--wizard"
    },
    {
      "type": "relationship",
      "id": "relationship--solarstorm-uses-t1078",
      "relationship_type": "uses",
      "source_ref": "campaign--solarstorm",
      "target_ref": "attack-pattern--t1078",
      "description": "During SolarStorm, actors authenticated with stolen service accounts."
    },
    {
      "type": "relationship",
      "id": "relationship--solarstorm-uses-cobalt",
      "relationship_type": "uses",
      "source_ref": "campaign--solarstorm",
      "target_ref": "tool--cobalt",
      "description": "During SolarStorm, actors deployed Cobalt Strike beacons."
    },
    {
      "type": "relationship",
      "id": "relationship--cobalt-uses-t1055",
      "relationship_type": "uses",
      "source_ref": "tool--cobalt",
      "target_ref": "attack-pattern--t1055",
      "description": "Cobalt Strike can inject beacon payloads into running processes."
    },
    {
      "type": "relationship",
      "id": "relationship--m1040-mitigates-t1055",
      "relationship_type": "mitigates",
      "source_ref": "course-of-action--behavior-prevention",
      "target_ref": "attack-pattern--t1055"
    },
    {
      "type": "relationship",
      "id": "relationship--dc-detects-t1055",
      "relationship_type": "detects",
      "source_ref": "x-mitre-data-component--process-creation",
      "target_ref": "attack-pattern--t1055"
    },
    {
      "type": "relationship",
      "id": "relationship--dc-detects-t1059",
      "relationship_type": "detects",
      "source_ref": "x-mitre-data-component--process-creation",
      "target_ref": "attack-pattern--t1059"
    },
    {
      "type": "relationship",
      "id": "relationship--dangling",
      "relationship_type": "uses",
      "source_ref": "intrusion-set--ghost",
      "target_ref": "attack-pattern--t1055",
      "description": "Edge from an object absent from this bundle."
    },
    {
      "type": "relationship",
      "id": "relationship--apt28-uses-revoked",
      "relationship_type": "uses",
      "source_ref": "intrusion-set--apt28",
      "target_ref": "attack-pattern--t1086",
      "description": "Edge to a revoked technique, dropped at index build."
    }
  ]
}`

const icsJSON = `{
  "type": "bundle",
  "id": "bundle--ics-fixture",
  "objects": [
    {
      "type": "attack-pattern",
      "id": "attack-pattern--t0886",
      "name": "Remote Services",
      "description": "Adversaries may leverage remote services to move between assets.",
      "created": "2020-05-21T17:43:26.506Z",
      "modified": "2023-10-13T17:57:01.000Z",
      "x_mitre_platforms": ["None"],
      "external_references": [
        {"source_name": "mitre-ics-attack", "external_id": "T0886"}
      ]
    },
    {
      "type": "x-mitre-asset",
      "id": "x-mitre-asset--safety",
      "name": "Safety Controller",
      "description": "Safety controllers provide safety related functions for industrial processes.",
      "created": "2023-09-28T14:44:54.756Z",
      "modified": "2023-10-04T18:05:43.000Z",
      "external_references": [
        {"source_name": "mitre-ics-attack", "external_id": "A0010"}
      ]
    },
    {
      "type": "relationship",
      "id": "relationship--t0886-targets-safety",
      "relationship_type": "targets",
      "source_ref": "attack-pattern--t0886",
      "target_ref": "x-mitre-asset--safety"
    }
  ]
}`
